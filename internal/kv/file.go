package kv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const (
	fileSuffix      = ".json"
	backupSuffix    = ".backup"
	tmpSuffix       = ".tmp"
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// FileStore keeps one JSON file per key inside a data directory.
type FileStore struct {
	dir string
	log *zap.Logger
	mu  sync.RWMutex
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileSuffix)
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes value to a temp file, moves the current file to the backup
// name and renames the temp file into place.
func (s *FileStore) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmpFile := target + tmpSuffix
	if err := os.WriteFile(tmpFile, value, filePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}

	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, target+backupSuffix); err != nil {
			s.log.Warn("failed to create backup", zap.String("key", key), zap.Error(err))
		}
	}

	if err := os.Rename(tmpFile, target); err != nil {
		return fmt.Errorf("failed to commit %s: %w", target, err)
	}
	return nil
}

// Delete removes the value file. The backup is left behind.
func (s *FileStore) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Rename(target, target+backupSuffix); err != nil {
		return fmt.Errorf("failed to remove %s: %w", target, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
