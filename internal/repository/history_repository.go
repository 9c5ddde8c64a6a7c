package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/bigbuild/buildwizard/internal/domain"
)

const (
	// HistorySchemaVersion defines the current schema version for history files
	HistorySchemaVersion = "1.0.0"
	// HistoryFilePermissions defines the permissions for history files
	HistoryFilePermissions = 0o600
	// HistoryDirPermissions defines the permissions for the state directory
	HistoryDirPermissions = 0o700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// HistoryRepository stores the record of successful dispatches.
type HistoryRepository interface {
	Append(ctx context.Context, rec domain.DispatchRecord) error
	Load(ctx context.Context) (*domain.DispatchHistory, error)
}

// HistoryMetadata contains metadata about the history file
type HistoryMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type historyWrapper struct {
	Metadata HistoryMetadata         `json:"metadata"`
	History  *domain.DispatchHistory `json:"history"`
}

// JSONHistoryRepository implements HistoryRepository with a JSON file guarded by a file lock.
// The lock file lives on the OS filesystem next to the history file.
type JSONHistoryRepository struct {
	fs    afero.Fs
	path  string
	limit int
}

// NewJSONHistoryRepository creates a history repository keeping at most limit records.
func NewJSONHistoryRepository(fs afero.Fs, path string, limit int) *JSONHistoryRepository {
	return &JSONHistoryRepository{fs: fs, path: path, limit: limit}
}

// Append adds rec under an exclusive lock and rewrites the file atomically.
func (r *JSONHistoryRepository) Append(ctx context.Context, rec domain.DispatchRecord) error {
	if err := r.fs.MkdirAll(filepath.Dir(r.path), HistoryDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}
	lock := flock.New(r.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, LockRetryInterval)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock within timeout")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock history file: %v\n", unlockErr)
		}
	}()
	history, err := r.read()
	if err != nil {
		return err
	}
	history.Append(rec, r.limit)
	return r.write(history)
}

// Load reads the history under a shared lock. A missing file is an empty history.
func (r *JSONHistoryRepository) Load(ctx context.Context) (*domain.DispatchHistory, error) {
	exists, err := afero.Exists(r.fs, r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to check history file: %w", err)
	}
	if !exists {
		return &domain.DispatchHistory{}, nil
	}
	lock := flock.New(r.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := lock.TryRLockContext(lockCtx, LockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire shared lock within timeout")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock history file: %v\n", unlockErr)
		}
	}()
	return r.read()
}

func (r *JSONHistoryRepository) read() (*domain.DispatchHistory, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.DispatchHistory{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	var wrapper historyWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if wrapper.Metadata.SchemaVersion != HistorySchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			HistorySchemaVersion, wrapper.Metadata.SchemaVersion)
	}
	if wrapper.History == nil {
		return &domain.DispatchHistory{}, nil
	}
	raw, err := json.Marshal(wrapper.History)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history for checksum validation: %w", err)
	}
	if wrapper.Metadata.Checksum != checksum(raw) {
		return nil, fmt.Errorf("history checksum mismatch: data may be corrupted")
	}
	return wrapper.History, nil
}

func (r *JSONHistoryRepository) write(history *domain.DispatchHistory) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history for checksum: %w", err)
	}
	data, err := json.MarshalIndent(historyWrapper{
		Metadata: HistoryMetadata{
			SchemaVersion: HistorySchemaVersion,
			Checksum:      checksum(raw),
			UpdatedAt:     time.Now(),
		},
		History: history,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history wrapper: %w", err)
	}
	// Write atomically using temp file
	tempFile := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, HistoryFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp history file: %w", err)
	}
	if err := r.fs.Rename(tempFile, r.path); err != nil {
		if removeErr := r.fs.Remove(tempFile); removeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp file: %v\n", removeErr)
		}
		return fmt.Errorf("failed to rename history file: %w", err)
	}
	return nil
}

func (r *JSONHistoryRepository) lockPath() string {
	return filepath.Join(filepath.Dir(r.path), "."+filepath.Base(r.path)+".lock")
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
