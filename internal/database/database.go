// Package database provides keyed blob storage for durable state: the
// download history, user presets, and settings. Each collection is written
// as a full replace on every mutation; there are no partial writes.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"git.mills.io/prologic/bitcask"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")

// DB wraps the bitcask store.
type DB struct {
	bc *bitcask.Bitcask
}

// Open initializes the store at path, creating parent directories as needed.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	bc, err := bitcask.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	log.Debugf("Database opened at %s", path)
	return &DB{bc: bc}, nil
}

// Get returns the blob stored under key, or ErrNotFound.
func (d *DB) Get(key string) ([]byte, error) {
	value, err := d.bc.Get([]byte(key))
	if err != nil {
		if errors.Is(err, bitcask.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// Put replaces the blob stored under key.
func (d *DB) Put(key string, value []byte) error {
	if err := d.bc.Put([]byte(key), value); err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (d *DB) Delete(key string) error {
	if err := d.bc.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close syncs and closes the underlying store.
func (d *DB) Close() error {
	return d.bc.Close()
}
