package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// File name suffixes used inside a partition directory.
const (
	cacheFileExtension = ".json"
	tempFileExtension  = ".tmp"
)

// FileBackend stores one JSON file per record in a directory.
type FileBackend struct {
	directory string
}

// NewFileBackend creates the partition directory if needed.
func NewFileBackend(directory string) (*FileBackend, error) {
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileBackend{directory: directory}, nil
}

// Read implements Backend.
func (b *FileBackend) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(b.keyToFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Write implements Backend. The record is written to a uniquely named temp
// file and renamed into place, so concurrent writers never share a temp file
// and the last rename wins.
func (b *FileBackend) Write(key string, data []byte) error {
	if err := os.MkdirAll(b.directory, 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	filePath := b.keyToFilePath(key)
	tempPath := filepath.Join(b.directory, "."+key+"."+ulid.Make().String()+tempFileExtension)
	if writeErr := os.WriteFile(tempPath, data, 0o600); writeErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}

	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}
	return nil
}

// Delete implements Backend.
func (b *FileBackend) Delete(key string) (bool, error) {
	err := os.Remove(b.keyToFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete cache file: %w", err)
	}
	return true, nil
}

// Scan implements Backend. A missing directory is an empty partition, and
// files removed between listing and reading are skipped.
func (b *FileBackend) Scan(fn func(Record) error) error {
	entries, err := os.ReadDir(b.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, dirEntry := range entries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != cacheFileExtension {
			continue
		}

		rec := Record{Key: strings.TrimSuffix(dirEntry.Name(), cacheFileExtension)}
		info, infoErr := dirEntry.Info()
		if infoErr != nil {
			if os.IsNotExist(infoErr) {
				continue
			}
			rec.Err = infoErr
		} else {
			rec.Size = info.Size()
		}

		if rec.Err == nil {
			data, readErr := os.ReadFile(filepath.Join(b.directory, dirEntry.Name()))
			switch {
			case readErr == nil:
				rec.Data = data
			case os.IsNotExist(readErr):
				continue
			default:
				rec.Err = readErr
			}
		}

		if fnErr := fn(rec); fnErr != nil {
			return fnErr
		}
	}
	return nil
}

// Purge implements Backend. Leftover temp files from interrupted writes are
// removed too but not counted.
func (b *FileBackend) Purge() (int, error) {
	entries, err := os.ReadDir(b.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch filepath.Ext(entry.Name()) {
		case cacheFileExtension:
			removeErr := os.Remove(filepath.Join(b.directory, entry.Name()))
			if removeErr != nil && !os.IsNotExist(removeErr) {
				return count, fmt.Errorf("failed to remove cache file %s: %w", entry.Name(), removeErr)
			}
			if removeErr == nil {
				count++
			}
		case tempFileExtension:
			_ = os.Remove(filepath.Join(b.directory, entry.Name()))
		}
	}
	return count, nil
}

// Location implements Backend.
func (b *FileBackend) Location() string {
	return b.directory
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	return nil
}

// keyToFilePath converts a cache key to a file path. The key is sanitized
// to ensure filesystem safety.
func (b *FileBackend) keyToFilePath(key string) string {
	safeKey := strings.ReplaceAll(key, "/", "_")
	safeKey = strings.ReplaceAll(safeKey, "\\", "_")
	safeKey = strings.ReplaceAll(safeKey, ":", "_")
	return filepath.Join(b.directory, safeKey+cacheFileExtension)
}
