// Package backup periodically uploads a snapshot of the SQLite database to
// S3-compatible storage.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds backup manager configuration.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // non-AWS providers
	AccessKey string
	SecretKey string
	Prefix    string
	Interval  time.Duration
	DBPath    string
}

func (c Config) enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Status holds the result of the most recent backup attempt.
type Status struct {
	Enabled    bool       `json:"enabled"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Manager uploads database snapshots on a fixed interval.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status
	db     *sql.DB
	client s3Client
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	m := &Manager{
		cfg:    cfg,
		db:     db,
		logger: logger.With("component", "backup"),
	}
	if cfg.enabled() {
		m.client = newS3Client(cfg)
		m.status.Enabled = true
	}
	return m
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the periodic backup loop. A disabled manager starts nothing.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the backup loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// RunNow checkpoints the WAL, snapshots the database file, and uploads it.
func (m *Manager) RunNow(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	cfg := m.cfg
	m.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("backup not configured: S3 credentials missing")
	}

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	key := fmt.Sprintf("%s/homeplan-%s.db", cfg.Prefix, timestamp)

	snapshot := filepath.Join(os.TempDir(), fmt.Sprintf("homeplan-backup-%s.db", timestamp))
	defer os.Remove(snapshot)

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return m.fail(fmt.Errorf("wal checkpoint: %w", err))
	}
	if err := copyFile(cfg.DBPath, snapshot); err != nil {
		return m.fail(fmt.Errorf("copy database: %w", err))
	}

	data, err := os.Open(snapshot)
	if err != nil {
		return m.fail(fmt.Errorf("open snapshot: %w", err))
	}
	defer data.Close()

	stat, err := data.Stat()
	if err != nil {
		return m.fail(fmt.Errorf("stat snapshot: %w", err))
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(cfg.Bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentLength: aws.Int64(stat.Size()),
	}); err != nil {
		return m.fail(fmt.Errorf("upload to s3: %w", err))
	}

	now := time.Now().UTC()
	m.mu.Lock()
	m.status.LastBackup = &now
	m.status.LastError = ""
	m.mu.Unlock()

	m.logger.Info("backup uploaded", "key", key, "bytes", stat.Size())
	return nil
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.status.LastError = err.Error()
	m.mu.Unlock()
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
