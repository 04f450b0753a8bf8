package cli

import (
	"context"
	"log/slog"

	"github.com/ai8future/textprep/internal/cache"
	"github.com/ai8future/textprep/internal/config"
	"github.com/ai8future/textprep/internal/detect"
	"github.com/ai8future/textprep/internal/lexicon"
	"github.com/ai8future/textprep/internal/prep"
	"github.com/ai8future/textprep/internal/profanity"
	"github.com/ai8future/textprep/internal/sentence"
	"github.com/ai8future/textprep/internal/stopword"
	"github.com/ai8future/textprep/internal/store"
)

// App holds the components shared by every command.
type App struct {
	Config    *config.Config
	Lexicon   *lexicon.Lexicon
	Detector  *detect.Detector
	Segmenter *sentence.Segmenter
	Stopwords *stopword.Matcher
	Profanity *profanity.Filter

	cache   *cache.ChunkCache
	repo    *store.Repository
	closers []func()
}

// AppFactory returns the App built for the running command.
type AppFactory func() *App

// NewApp builds the text components from cfg. Backends are connected on demand
// by ConnectBackends.
func NewApp(cfg *config.Config) *App {
	lex := lexicon.Default()
	if cfg.DataDir != "" {
		lex = lexicon.Dir(cfg.DataDir)
	}

	det := detect.New(lex)
	return &App{
		Config:    cfg,
		Lexicon:   lex,
		Detector:  det,
		Segmenter: sentence.New(det),
		Stopwords: stopword.New(lex),
		Profanity: profanity.New(lex),
	}
}

// ConnectBackends opens the Redis chunk cache and the Postgres store when they
// are enabled. Connection failures are fatal only in production startup mode.
func (a *App) ConnectBackends(ctx context.Context) error {
	mode := a.Config.StartupMode

	if a.Config.Redis.Enabled && a.cache == nil {
		client, err := cache.NewClient(ctx, cache.Config{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		if err := mode.Tolerate("redis", err); err != nil {
			return err
		}
		if client != nil {
			a.closers = append(a.closers, func() { _ = client.Close() })
			a.cache = cache.NewChunkCache(client, a.Config.Redis.TTL)
			slog.Debug("chunk cache connected", "addr", a.Config.Redis.Addr)
		}
	}

	if a.Config.Database.Enabled && a.repo == nil {
		repo, err := a.openStore(ctx)
		if err := mode.Tolerate("database", err); err != nil {
			return err
		}
		a.repo = repo
	}

	return nil
}

func (a *App) openStore(ctx context.Context) (*store.Repository, error) {
	client, err := store.NewClient(ctx, store.Config{
		URL:            a.Config.Database.URL,
		MaxConnections: a.Config.Database.MaxConnections,
		LogQueries:     a.Config.Database.LogQueries,
		CACert:         a.Config.Database.CACert,
	})
	if err != nil {
		return nil, err
	}

	repo, err := store.NewRepository(client, a.Config.Database.TablePrefix)
	if err != nil {
		client.Close()
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		client.Close()
		return nil, err
	}

	a.closers = append(a.closers, client.Close)
	return repo, nil
}

// Service returns a prep service over the connected backends.
func (a *App) Service() *prep.Service {
	opts := []prep.Option{prep.WithSegmenter(a.Segmenter)}
	if a.cache != nil {
		opts = append(opts, prep.WithCache(a.cache))
	}
	if a.repo != nil {
		opts = append(opts, prep.WithStore(a.repo))
	}
	return prep.NewService(opts...)
}

// PrepOptions combines the configured defaults into prep options.
func (a *App) PrepOptions() prep.Options {
	return prep.Options{
		Chunking:     a.Config.ChunkOptions(),
		Segmentation: a.Config.SegmentationOptions(),
		StripHTML:    a.Config.Preprocess.StripHTML,
		Normalize:    a.Config.Preprocess.Normalize,
	}
}

// Close releases backend connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
