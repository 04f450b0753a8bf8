// Package cli implements the textprep command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ai8future/textprep/internal/config"
	"github.com/ai8future/textprep/internal/prep"
)

// VersionInfo is stamped into the binary at build time.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", v.Version, v.GitCommit, v.BuildTime)
}

// NewRootCmd builds the textprep command tree.
func NewRootCmd(info VersionInfo) *cobra.Command {
	var app *App

	rootCmd := &cobra.Command{
		Use:           "textprep",
		Short:         "textprep - sentence segmentation and chunking",
		Long:          "Split text into sentences, group sentences into chunks, and detect abbreviations, URLs and emails.",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}

			cfgPath, _ := cmd.Flags().GetString("config")
			var (
				cfg *config.Config
				err error
			)
			if cfgPath != "" {
				cfg, err = config.LoadFile(cfgPath)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ConfigureLogger(cmd.ErrOrStderr(), cfg.Logging)
			app = NewApp(cfg)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: $TEXTPREP_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before the config; missing files are ignored")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	factory := func() *App { return app }

	rootCmd.AddCommand(SentencesCmd(factory))
	rootCmd.AddCommand(ChunksCmd(factory))
	rootCmd.AddCommand(AbbreviationsCmd(factory))
	rootCmd.AddCommand(URLsCmd(factory))
	rootCmd.AddCommand(EmailsCmd(factory))
	rootCmd.AddCommand(NormalizeCmd(factory))
	rootCmd.AddCommand(StopwordsCmd(factory))
	rootCmd.AddCommand(ProfanityCmd(factory))
	rootCmd.AddCommand(PrepareCmd(factory))
	rootCmd.AddCommand(PurgeCacheCmd(factory))

	return rootCmd
}

// ConfigureLogger sets up the default slog logger based on config values.
// Logs go to w so that command output on stdout stays parseable.
func ConfigureLogger(w io.Writer, cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// readDocuments reads each file argument, or stdin when there are none or the
// argument is "-".
func readDocuments(cmd *cobra.Command, args []string) ([]prep.Document, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	docs := make([]prep.Document, 0, len(args))
	for _, path := range args {
		var (
			data []byte
			err  error
		)
		source := path
		if path == "-" {
			source = "stdin"
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		docs = append(docs, prep.Document{Source: source, Text: string(data)})
	}
	return docs, nil
}
