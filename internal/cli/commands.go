package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ai8future/textprep/internal/chunker"
	"github.com/ai8future/textprep/internal/detect"
	"github.com/ai8future/textprep/internal/prep"
	"github.com/ai8future/textprep/internal/sentence"
	"github.com/ai8future/textprep/internal/textproc"
	"github.com/ai8future/textprep/internal/textspan"
)

// documentResult is the JSON shape of per-document output.
type documentResult[T any] struct {
	Source string `json:"source"`
	Items  T      `json:"items"`
}

// runPerDocument applies fn to every input document and prints each result,
// or prints all results as one JSON array with --json.
func runPerDocument[T any](cmd *cobra.Command, args []string, fn func(prep.Document) (T, error), print func(io.Writer, T)) error {
	docs, err := readDocuments(cmd, args)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	results := make([]documentResult[T], 0, len(docs))
	for _, doc := range docs {
		items, err := fn(doc)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Source, err)
		}
		if asJSON {
			results = append(results, documentResult[T]{Source: doc.Source, Items: items})
			continue
		}
		if len(docs) > 1 {
			fmt.Fprintf(out, "%s\n", bold(doc.Source))
		}
		print(out, items)
	}

	if asJSON {
		return writeJSON(out, results)
	}
	return nil
}

func segmentationOptions(cmd *cobra.Command, app *App) sentence.Options {
	opts := app.Config.SegmentationOptions()
	if cmd.Flags().Changed("line-breaks") {
		opts.SplitOnLineBreaks, _ = cmd.Flags().GetBool("line-breaks")
	}
	opts.Offset, _ = cmd.Flags().GetInt("offset")
	return opts
}

func addSegmentationFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("line-breaks", false, "Also split on line breaks (default from config)")
	cmd.Flags().Int("offset", 0, "Add this value to every reported span")
}

func addChunkFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-words", 0, "Maximum words per chunk (default from config)")
	cmd.Flags().Int("max-sentences", 0, "Maximum sentences per chunk (default from config)")
	cmd.Flags().Int("max-characters", 0, "Maximum characters per chunk (default from config)")
	cmd.Flags().Int("overlap", 0, "Sentences repeated between chunks (default from config)")
}

// chunkOptions starts from the configured limits and applies any flags the
// user set, so "--max-characters 0" disables that limit.
func chunkOptions(cmd *cobra.Command, app *App) (chunker.Options, error) {
	opts := app.Config.ChunkOptions()
	flags := []struct {
		name   string
		target *int
	}{
		{"max-words", &opts.MaxWords},
		{"max-sentences", &opts.MaxSentences},
		{"max-characters", &opts.MaxCharacters},
		{"overlap", &opts.SentenceOverlap},
	}
	for _, f := range flags {
		if cmd.Flags().Changed(f.name) {
			*f.target, _ = cmd.Flags().GetInt(f.name)
		}
	}
	return opts, opts.Validate()
}

func SentencesCmd(af AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sentences [file...]",
		Short: "Split text into sentences",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			opts := segmentationOptions(cmd, app)
			return runPerDocument(cmd, args, func(doc prep.Document) ([]sentence.Sentence, error) {
				return app.Segmenter.Segment(doc.Text, opts), nil
			}, PrintSentences)
		},
	}

	addSegmentationFlags(cmd)
	return cmd
}

func ChunksCmd(af AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks [file...]",
		Short: "Group sentences into chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			segOpts := segmentationOptions(cmd, app)
			opts, err := chunkOptions(cmd, app)
			if err != nil {
				return err
			}

			merge, _ := cmd.Flags().GetBool("merge")
			if merge {
				return runPerDocument(cmd, args, func(doc prep.Document) (string, error) {
					chunks, err := chunker.ChunkSentences(app.Segmenter.Segment(doc.Text, segOpts), opts)
					if err != nil {
						return "", err
					}
					return chunker.RemoveOverlaps(chunker.Texts(chunks)), nil
				}, PrintText)
			}

			return runPerDocument(cmd, args, func(doc prep.Document) ([]chunker.Chunk, error) {
				return chunker.ChunkSentences(app.Segmenter.Segment(doc.Text, segOpts), opts)
			}, PrintChunks)
		},
	}

	addSegmentationFlags(cmd)
	addChunkFlags(cmd)
	cmd.Flags().Bool("merge", false, "Print the chunks joined back together with overlaps removed")
	return cmd
}

// abbreviationResult lists the abbreviations found in one document.
type abbreviationResult struct {
	Known   []textspan.TextSpan `json:"known"`
	Unknown []textspan.TextSpan `json:"unknown"`
}

func AbbreviationsCmd(af AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abbreviations [file...]",
		Short: "Find known and unknown abbreviations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			segmentation, _ := cmd.Flags().GetBool("segmentation")
			return runPerDocument(cmd, args, func(doc prep.Document) (abbreviationResult, error) {
				var r abbreviationResult
				if segmentation {
					r.Known, r.Unknown = app.Detector.SegmentationAbbreviations(doc.Text)
				} else {
					r.Known, r.Unknown = app.Detector.Abbreviations(doc.Text)
				}
				return r, nil
			}, PrintAbbreviations)
		},
	}

	cmd.Flags().Bool("segmentation", false, "Use the stricter matching applied during sentence segmentation")
	return cmd
}

// spanCmd builds a command that lists spans, or with --replace rewrites them.
func spanCmd(use, short string, find func(string) []textspan.TextSpan, replace func(text, placeholder string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [file...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("replace") {
				placeholder, _ := cmd.Flags().GetString("replace")
				return runPerDocument(cmd, args, func(doc prep.Document) (string, error) {
					return replace(doc.Text, placeholder), nil
				}, PrintText)
			}
			return runPerDocument(cmd, args, func(doc prep.Document) ([]textspan.TextSpan, error) {
				return find(doc.Text), nil
			}, PrintSpans)
		},
	}

	cmd.Flags().String("replace", "", "Print the text with every match replaced by this placeholder")
	return cmd
}

func URLsCmd(_ AppFactory) *cobra.Command {
	return spanCmd("urls", "Find URLs", detect.URLs, detect.ReplaceURLs)
}

func EmailsCmd(_ AppFactory) *cobra.Command {
	return spanCmd("emails", "Find email addresses", detect.Emails, detect.ReplaceEmails)
}

func NormalizeCmd(af AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [file...]",
		Short: "Clean up characters and whitespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			html, _ := cmd.Flags().GetBool("html")
			ascii, _ := cmd.Flags().GetBool("ascii")
			contractions, _ := cmd.Flags().GetBool("contractions")
			possessives, _ := cmd.Flags().GetBool("possessives")

			return runPerDocument(cmd, args, func(doc prep.Document) (string, error) {
				text := doc.Text
				if html {
					stripped, err := textproc.StripHTML(text)
					if err != nil {
						return "", err
					}
					text = stripped
				}
				if ascii {
					text = textproc.NormalizeCharsASCII(text)
				} else {
					text = textproc.NormalizeChars(text)
				}
				if contractions {
					dict, err := app.Lexicon.Contractions()
					if err != nil {
						return "", err
					}
					if text, err = textproc.ExpandContractions(text, dict, true); err != nil {
						return "", err
					}
				}
				if possessives {
					text = textproc.RemovePossessions(text)
				}
				return textproc.NormalizeWhitespaces(text), nil
			}, PrintText)
		},
	}

	cmd.Flags().Bool("html", false, "Treat input as HTML and keep only its text")
	cmd.Flags().Bool("ascii", false, "Drop non-ASCII characters")
	cmd.Flags().Bool("contractions", false, "Expand contractions such as \"don't\"")
	cmd.Flags().Bool("possessives", false, "Remove possessive 's")
	return cmd
}

// stopwordResult holds the stopword matches, or the text between them with --split.
type stopwordResult struct {
	Language string              `json:"language"`
	Spans    []textspan.TextSpan `json:"spans"`
}

func StopwordsCmd(af AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stopwords [file...]",
		Short: "Find stopwords, detecting the language unless one is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			language, _ := cmd.Flags().GetString("language")
			ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
			split, _ := cmd.Flags().GetBool("split")

			return runPerDocument(cmd, args, func(doc prep.Document) (stopwordResult, error) {
				r := stopwordResult{Language: language}
				if r.Language == "" {
					detected, err := app.Stopwords.DetectLanguage(doc.Text)
					if err != nil {
						return r, err
					}
					r.Language = detected
				}

				var err error
				if split {
					r.Spans, err = app.Stopwords.Split(doc.Text, r.Language, ignoreCase, 0)
				} else {
					r.Spans, err = app.Stopwords.Find(doc.Text, r.Language, ignoreCase)
				}
				return r, err
			}, PrintStopwords)
		},
	}

	cmd.Flags().StringP("language", "l", "", "Stopword language (detected when empty)")
	cmd.Flags().BoolP("ignore-case", "i", false, "Match stopwords case-insensitively")
	cmd.Flags().Bool("split", false, "Print the text between stopwords instead")
	return cmd
}

func ProfanityCmd(af AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "profanity [file...]",
		Short: "Find profanities, including common character substitutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			return runPerDocument(cmd, args, func(doc prep.Document) ([]textspan.TextSpan, error) {
				return app.Profanity.Find(doc.Text)
			}, PrintSpans)
		},
	}
}

func PrepareCmd(af AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare [file...]",
		Short: "Clean, segment and chunk documents in parallel",
		Long:  "Clean, segment and chunk documents in parallel, using the Redis chunk cache and the Postgres store when they are enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			docs, err := readDocuments(cmd, args)
			if err != nil {
				return err
			}

			opts := app.PrepOptions()
			opts.Segmentation = segmentationOptions(cmd, app)
			if opts.Chunking, err = chunkOptions(cmd, app); err != nil {
				return err
			}
			if cmd.Flags().Changed("html") {
				opts.StripHTML, _ = cmd.Flags().GetBool("html")
			}
			if cmd.Flags().Changed("normalize") {
				opts.Normalize, _ = cmd.Flags().GetBool("normalize")
			}
			opts.Persist, _ = cmd.Flags().GetBool("persist")

			workers := app.Config.Workers
			if cmd.Flags().Changed("workers") {
				workers, _ = cmd.Flags().GetInt("workers")
			}

			if err := app.ConnectBackends(cmd.Context()); err != nil {
				return err
			}

			results, err := app.Service().PrepareAll(cmd.Context(), docs, opts, workers)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			PrintPrepareResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	addSegmentationFlags(cmd)
	addChunkFlags(cmd)
	cmd.Flags().IntP("workers", "w", 0, "Documents prepared in parallel (default from config)")
	cmd.Flags().Bool("html", false, "Treat input as HTML (default from config)")
	cmd.Flags().Bool("normalize", false, "Normalise characters and whitespace (default from config)")
	cmd.Flags().Bool("persist", false, "Save documents and chunks to the database")
	return cmd
}

var errCacheDisabled = errors.New("redis chunk cache is not enabled")

func PurgeCacheCmd(af AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-cache",
		Short: "Delete every cached chunk list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := af()
			if !app.Config.Redis.Enabled {
				return errCacheDisabled
			}
			if err := app.ConnectBackends(cmd.Context()); err != nil {
				return err
			}
			if app.cache == nil {
				return errCacheDisabled
			}

			n, err := app.cache.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %d cached chunk lists\n", green("✓"), n)
			return nil
		},
	}
}
