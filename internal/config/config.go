package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ai8future/textprep/internal/chunker"
	"github.com/ai8future/textprep/internal/config/envutil"
	"github.com/ai8future/textprep/internal/sentence"
)

// DefaultPath is read when TEXTPREP_CONFIG is unset.
const DefaultPath = "configs/textprep.yaml"

// Config holds all textprep configuration
type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Chunking     ChunkingConfig     `yaml:"chunking"`
	Preprocess   PreprocessConfig   `yaml:"preprocess"`
	Redis        RedisConfig        `yaml:"redis"`
	Database     DatabaseConfig     `yaml:"database"`
	DataDir      string             `yaml:"data_dir"` // dictionary directory; embedded data when empty
	Workers      int                `yaml:"workers"`
	StartupMode  StartupMode        `yaml:"startup_mode"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SegmentationConfig holds sentence segmentation settings
type SegmentationConfig struct {
	SplitOnLineBreaks bool `yaml:"split_on_line_breaks"`
}

// ChunkingConfig holds chunk limits. Zero disables a limit.
type ChunkingConfig struct {
	MaxWords        int `yaml:"max_words"`
	MaxSentences    int `yaml:"max_sentences"`
	MaxCharacters   int `yaml:"max_characters"`
	SentenceOverlap int `yaml:"sentence_overlap"`
}

// PreprocessConfig holds cleanup applied before segmentation
type PreprocessConfig struct {
	StripHTML bool `yaml:"strip_html"`
	Normalize bool `yaml:"normalize"`
}

// RedisConfig holds chunk cache settings
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// DatabaseConfig holds chunk store settings
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled"`
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	LogQueries     bool   `yaml:"log_queries"`
	CACert         string `yaml:"ca_cert"`
	TablePrefix    string `yaml:"table_prefix"`
}

// LoadDotEnv loads variables from a dotenv file into the environment. Variables
// that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	return LoadFile(envutil.GetStringEnv("TEXTPREP_CONFIG", DefaultPath))
}

// LoadFile loads configuration from configPath, then applies environment
// overrides. A missing file leaves the defaults in place.
func LoadFile(configPath string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.expandEnvVars()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns configuration with sensible defaults
func defaultConfig() *Config {
	defaults := chunker.DefaultOptions()
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Chunking: ChunkingConfig{
			MaxCharacters:   defaults.MaxCharacters,
			SentenceOverlap: defaults.SentenceOverlap,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  24 * time.Hour,
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			TablePrefix:    "textprep",
		},
		Workers:     4,
		StartupMode: StartupModeProduction,
	}
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	c.Logging.Level = envutil.GetStringEnv("TEXTPREP_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envutil.GetStringEnv("TEXTPREP_LOG_FORMAT", c.Logging.Format)

	c.Segmentation.SplitOnLineBreaks = envutil.GetBoolEnv("TEXTPREP_SPLIT_ON_LINE_BREAKS", c.Segmentation.SplitOnLineBreaks)

	c.Chunking.MaxWords = envutil.GetIntEnv("TEXTPREP_MAX_WORDS", c.Chunking.MaxWords)
	c.Chunking.MaxSentences = envutil.GetIntEnv("TEXTPREP_MAX_SENTENCES", c.Chunking.MaxSentences)
	c.Chunking.MaxCharacters = envutil.GetIntEnv("TEXTPREP_MAX_CHARACTERS", c.Chunking.MaxCharacters)
	c.Chunking.SentenceOverlap = envutil.GetIntEnv("TEXTPREP_SENTENCE_OVERLAP", c.Chunking.SentenceOverlap)

	c.Preprocess.StripHTML = envutil.GetBoolEnv("TEXTPREP_STRIP_HTML", c.Preprocess.StripHTML)
	c.Preprocess.Normalize = envutil.GetBoolEnv("TEXTPREP_NORMALIZE", c.Preprocess.Normalize)

	c.Redis.Enabled = envutil.GetBoolEnv("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = envutil.GetStringEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.GetStringEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envutil.GetIntEnv("REDIS_DB", c.Redis.DB)
	c.Redis.TTL = envutil.GetDurationEnv("REDIS_TTL", c.Redis.TTL)

	c.Database.Enabled = envutil.GetBoolEnv("DATABASE_ENABLED", c.Database.Enabled)
	c.Database.URL = envutil.GetStringEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxConnections = envutil.GetIntEnv("DATABASE_MAX_CONNECTIONS", c.Database.MaxConnections)
	c.Database.LogQueries = envutil.GetBoolEnv("DATABASE_LOG_QUERIES", c.Database.LogQueries)
	c.Database.CACert = envutil.GetStringEnv("DATABASE_CA_CERT", c.Database.CACert)

	c.DataDir = envutil.GetStringEnv("TEXTPREP_DATA_DIR", c.DataDir)
	c.Workers = envutil.GetIntEnv("TEXTPREP_WORKERS", c.Workers)

	if mode := os.Getenv("TEXTPREP_STARTUP_MODE"); mode != "" {
		c.StartupMode = StartupMode(mode)
	}
}

// expandEnvVars expands ${VAR} patterns in string fields
func (c *Config) expandEnvVars() {
	c.Redis.Password = expandEnv(c.Redis.Password)
	c.Database.URL = expandEnv(c.Database.URL)
	c.Database.CACert = expandEnv(c.Database.CACert)
	c.DataDir = expandEnv(c.DataDir)
}

// expandEnv expands ${VAR} patterns in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	return os.ExpandEnv(s)
}

// validate checks configuration validity
func (c *Config) validate() error {
	if err := c.ChunkOptions().Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}

	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required when redis is enabled")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url required when the database is enabled")
	}

	// Validate startup mode
	switch c.StartupMode {
	case StartupModeProduction, StartupModeDevelopment, "":
		// Valid modes
	default:
		// Log warning but treat as production (fail-safe)
		fmt.Fprintf(os.Stderr, "Warning: unrecognized startup_mode %q, defaulting to production\n", c.StartupMode)
	}

	return nil
}

// ChunkOptions converts the chunking section to chunker options.
func (c *Config) ChunkOptions() chunker.Options {
	return chunker.Options{
		MaxWords:        c.Chunking.MaxWords,
		MaxSentences:    c.Chunking.MaxSentences,
		MaxCharacters:   c.Chunking.MaxCharacters,
		SentenceOverlap: c.Chunking.SentenceOverlap,
	}
}

// SegmentationOptions converts the segmentation section to sentence options.
func (c *Config) SegmentationOptions() sentence.Options {
	return sentence.Options{SplitOnLineBreaks: c.Segmentation.SplitOnLineBreaks}
}
