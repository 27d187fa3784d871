// Package datastore is a small JSON-file backed key/value store used as the
// durable layer for guild records. Values are kept in memory and flushed to
// disk periodically and on Close; writes to disk are atomic (temp file plus
// rename) and skipped when the serialized payload is unchanged.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds tuning options for the DataStore.
type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration
}

// DefaultConfig returns the default configuration for the given file path.
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
	}
}

type DataStore struct {
	mu           sync.RWMutex
	data         map[string]any
	file         string
	config       *Config
	lastChecksum string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.Mutex
	closed  bool
}

// New creates a DataStore with default configuration.
func New(filePath string) (*DataStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig creates a DataStore, loading existing data from disk if present.
func NewWithConfig(config *Config) (*DataStore, error) {
	if config == nil || config.FilePath == "" {
		return nil, fmt.Errorf("datastore: file path cannot be empty")
	}

	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("datastore: failed to create directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ds := &DataStore{
		data:   make(map[string]any),
		file:   config.FilePath,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := os.Stat(config.FilePath); os.IsNotExist(err) {
		if err := ds.writeFileAtomic([]byte("{}")); err != nil {
			cancel()
			return nil, fmt.Errorf("datastore: failed to create empty file: %w", err)
		}
	} else if err == nil {
		if err := ds.loadFromFile(); err != nil {
			cancel()
			return nil, fmt.Errorf("datastore: failed to load data: %w", err)
		}
	} else {
		cancel()
		return nil, fmt.Errorf("datastore: failed to stat file: %w", err)
	}

	ds.wg.Add(1)
	go ds.autoSave()

	return ds, nil
}

// Add stores a key-value pair.
func (ds *DataStore) Add(key string, value any) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.data[key] = value
}

// Get retrieves a value by key.
func (ds *DataStore) Get(key string) (any, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	value, exists := ds.data[key]
	return value, exists
}

// Delete removes a key-value pair.
func (ds *DataStore) Delete(key string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.data, key)
}

// Keys returns all stored keys.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	keys := make([]string, 0, len(ds.data))
	for k := range ds.data {
		keys = append(keys, k)
	}
	return keys
}

// SaveToFile forces an immediate save to disk.
func (ds *DataStore) SaveToFile() error {
	return ds.saveToFile()
}

// Close stops the autosave loop and performs a final save.
func (ds *DataStore) Close() error {
	ds.closeMu.Lock()
	if ds.closed {
		ds.closeMu.Unlock()
		return nil
	}
	ds.closed = true
	ds.closeMu.Unlock()

	ds.cancel()
	ds.wg.Wait()
	return ds.saveToFile()
}

func (ds *DataStore) saveToFile() error {
	ds.mu.RLock()
	data, err := json.MarshalIndent(ds.data, "", "  ")
	ds.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("datastore: failed to marshal data: %w", err)
	}

	checksum := ds.checksum(data)
	if checksum == ds.lastChecksum {
		return nil
	}

	if err := ds.writeFileAtomic(data); err != nil {
		return err
	}

	ds.lastChecksum = checksum
	return nil
}

func (ds *DataStore) loadFromFile() error {
	data, err := os.ReadFile(ds.file)
	if err != nil {
		return fmt.Errorf("datastore: failed to read file: %w", err)
	}

	var temp map[string]any
	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("datastore: invalid JSON: %w", err)
	}

	ds.mu.Lock()
	ds.data = temp
	ds.mu.Unlock()
	ds.lastChecksum = ds.checksum(data)
	return nil
}

func (ds *DataStore) writeFileAtomic(data []byte) error {
	tmpFile := ds.file + ".tmp"

	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("datastore: failed to write temp file: %w", err)
	}

	f, err := os.OpenFile(tmpFile, os.O_RDWR, 0644)
	if err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("datastore: failed to open temp file for sync: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("datastore: failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmpFile, ds.file); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("datastore: failed to rename temp file: %w", err)
	}
	return nil
}

func (ds *DataStore) autoSave() {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.config.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ds.ctx.Done():
			return
		case <-ticker.C:
			if err := ds.saveToFile(); err != nil {
				log.Println("[ERR] Datastore auto-save error:", err)
			}
		}
	}
}

func (ds *DataStore) checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
