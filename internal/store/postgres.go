// Package store persists prepared documents and their chunks in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps a PostgreSQL connection pool.
type Client struct {
	pool       *pgxpool.Pool
	logQueries bool
}

// Config holds database connection configuration.
type Config struct {
	URL            string
	MaxConnections int
	LogQueries     bool
	CACert         string // PEM-encoded CA certificate for SSL verification
}

// NewClient creates a new PostgreSQL client with connection pool.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	dbURL := cfg.URL
	if cfg.CACert != "" {
		certPath, err := writeCACertToFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to write CA certificate: %w", err)
		}
		dbURL = withSSLRootCert(dbURL, certPath)
		slog.Info("database SSL configured with custom CA certificate", "cert_path", certPath)
	}

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	} else {
		poolConfig.MaxConns = 10
	}

	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connection established",
		"max_connections", poolConfig.MaxConns,
	)

	return &Client{
		pool:       pool,
		logQueries: cfg.LogQueries,
	}, nil
}

// Close closes the database connection pool.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
		slog.Info("database connection closed")
	}
}

// Ping verifies the database connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// logQuery logs a query if logging is enabled.
func (c *Client) logQuery(query string, args ...any) {
	if c.logQueries {
		slog.Debug("executing query", "sql", query, "args", args)
	}
}

// withSSLRootCert adds sslmode and sslrootcert parameters unless the URL already sets them.
func withSSLRootCert(dbURL, certPath string) string {
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "sslmode=") {
		dbURL += sep + "sslmode=verify-full"
		sep = "&"
	}
	if !strings.Contains(dbURL, "sslrootcert=") {
		dbURL += sep + "sslrootcert=" + certPath
	}
	return dbURL
}

// writeCACertToFile writes a PEM-encoded CA certificate to a stable temporary path.
func writeCACertToFile(certPEM string) (string, error) {
	certDir := filepath.Join(os.TempDir(), "textprep-certs")
	if err := os.MkdirAll(certDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cert directory: %w", err)
	}

	certPath := filepath.Join(certDir, "database-ca.crt")
	if err := os.WriteFile(certPath, []byte(certPEM), 0600); err != nil {
		return "", fmt.Errorf("failed to write certificate file: %w", err)
	}
	return certPath, nil
}
