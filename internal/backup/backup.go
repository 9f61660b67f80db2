package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/foodwheel/internal/apperr"
)

const keyPrefix = "backups/"

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Documents is the slice of the document store a backup needs.
type Documents interface {
	Export(ctx context.Context, names ...string) (map[string]json.RawMessage, error)
	Import(ctx context.Context, docs map[string]json.RawMessage) error
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration. A zero Interval disables the
// schedule; RunNow still works.
type Config struct {
	S3         S3Config
	Passphrase string
	Interval   time.Duration
	Documents  []string
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"lastBackup,omitempty"`
	LastKey    string     `json:"lastKey,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"inProgress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// snapshot is the plaintext written to the bucket before encryption.
type snapshot struct {
	CreatedAt time.Time                  `json:"createdAt"`
	Documents map[string]json.RawMessage `json:"documents"`
}

// Manager takes encrypted snapshots of the prize and code documents and
// keeps them in S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	docs   Documents
	client s3Client
	now    func() time.Time

	// run serializes backups and restores.
	run sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. It reports StateDisabled unless the
// bucket credentials and a passphrase are all present.
func NewManager(cfg Config, docs Documents, callback StatusCallback, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:      cfg,
		docs:     docs,
		callback: callback,
		logger:   logger,
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}

	if cfg.S3.complete() && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
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

// Enabled reports whether backups can run.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins the scheduled backup loop when an interval is configured.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return
	}
	interval := m.cfg.Interval
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.logger.Info("backup schedule started", "interval", interval)

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
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

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil && s.State != StateIdle {
		s.LastBackup = m.status.LastBackup
		s.LastKey = m.status.LastKey
	}
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(err error) {
	m.setStatus(Status{State: StateError, Error: err.Error()})
}

// RunNow snapshots the documents, encrypts them and uploads the result.
// It returns the object key.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	names := m.cfg.Documents
	m.mu.RUnlock()

	if client == nil {
		return "", apperr.Config("backup is not configured")
	}

	m.run.Lock()
	defer m.run.Unlock()

	m.setStatus(Status{State: StateRunning, InProgress: true})

	docs, err := m.docs.Export(ctx, names...)
	if err != nil {
		m.fail(err)
		return "", err
	}

	now := m.now().UTC()
	plain, err := json.Marshal(snapshot{CreatedAt: now, Documents: docs})
	if err != nil {
		m.fail(err)
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	sealed, err := Encrypt(plain, passphrase)
	if err != nil {
		m.fail(err)
		return "", fmt.Errorf("encrypt: %w", err)
	}

	key := fmt.Sprintf("%sbackup-%s.json.enc", keyPrefix, now.Format("2006-01-02T150405Z"))
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		m.fail(err)
		return "", apperr.Storage("upload backup", err)
	}

	m.setStatus(Status{State: StateIdle, LastBackup: &now, LastKey: key})
	m.logger.Info("backup uploaded", "key", key, "bytes", len(sealed))
	return key, nil
}

// Restore downloads the backup stored under key, decrypts it and replaces
// the live documents with its contents.
func (m *Manager) Restore(ctx context.Context, key string) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	names := m.cfg.Documents
	m.mu.RUnlock()

	if client == nil {
		return apperr.Config("backup is not configured")
	}
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, keyPrefix) || strings.Contains(key, "..") {
		return apperr.Validation("invalid backup key")
	}

	m.run.Lock()
	defer m.run.Unlock()

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Storage("download backup", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return apperr.Storage("read backup", err)
	}

	plain, err := Decrypt(sealed, passphrase)
	if err != nil {
		return apperr.Validation("backup could not be decrypted")
	}

	var snap snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return apperr.Validation("backup is not a valid snapshot")
	}
	for _, name := range names {
		if _, ok := snap.Documents[name]; !ok {
			return apperr.Validation(fmt.Sprintf("backup is missing document %q", name))
		}
	}

	restore := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		restore[name] = snap.Documents[name]
	}
	if err := m.docs.Import(ctx, restore); err != nil {
		return err
	}

	m.logger.Info("backup restored", "key", key, "created_at", snap.CreatedAt)
	return nil
}
