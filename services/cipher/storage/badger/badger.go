// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger opens the embedded BadgerDB store used for search history
// and provides JSON record helpers over it.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("record not found")

// Config holds configuration for a store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string `yaml:"path" json:"path"`

	// InMemory keeps everything in RAM.
	InMemory bool `yaml:"in_memory" json:"in_memory"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `yaml:"sync_writes" json:"sync_writes"`

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration `yaml:"gc_interval" json:"gc_interval"`

	// GCDiscardRatio is the garbage ratio that triggers a value log rewrite.
	GCDiscardRatio float64 `yaml:"gc_discard_ratio" json:"gc_discard_ratio" validate:"gte=0,lte=1"`

	// Logger receives BadgerDB's internal logs. Nil silences them.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// DefaultConfig returns defaults for a persistent store at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB wraps a BadgerDB instance with value log GC and JSON helpers.
//
// Thread Safety: Safe for concurrent use.
type DB struct {
	db     *badger.DB
	logger *slog.Logger

	stopGC    context.CancelFunc
	gcDone    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open opens the store described by cfg.
//
// Description:
//
//	Creates the directory when needed and starts a value log GC loop when
//	GCInterval is positive and the store is persistent.
//
// Outputs:
//   - *DB: The opened store. Caller must Close it.
//   - error: Non-nil if the path is missing or the database cannot be opened.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.With(slog.String("component", "badger"))})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	d := &DB{db: bdb, logger: logger.With(slog.String("component", "history_store"))}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		ctx, cancel := context.WithCancel(context.Background())
		d.stopGC = cancel
		d.gcDone = make(chan struct{})
		go d.runGC(ctx, cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return d, nil
}

// OpenInMemory opens an in-memory store.
func OpenInMemory() (*DB, error) {
	return Open(InMemoryConfig())
}

func (d *DB) runGC(ctx context.Context, interval time.Duration, ratio float64) {
	defer close(d.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := d.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				d.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

// PutJSON stores v as JSON under key.
func (d *DB) PutJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// GetJSON decodes the JSON value under key into v.
//
// Outputs:
//   - error: ErrNotFound when the key is absent.
func (d *DB) GetJSON(key []byte, v any) error {
	return d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// Scan calls fn with the raw value of each key under prefix.
//
// Description:
//
//	Keys are visited in byte order, or in reverse when reverse is true. At
//	most limit values are visited; a non-positive limit visits all. The
//	value slice is only valid during fn.
func (d *DB) Scan(prefix []byte, reverse bool, limit int, fn func(key, value []byte) error) error {
	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if reverse {
			// Seek past every key sharing the prefix.
			seek = append(append([]byte{}, prefix...), 0xff)
		}
		n := 0
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && n >= limit {
				return nil
			}
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				return fn(item.Key(), val)
			}); err != nil {
				return err
			}
			n++
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DB) Delete(key []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Close stops GC and closes the database. Safe to call multiple times.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		if d.stopGC != nil {
			d.stopGC()
			<-d.gcDone
		}
		d.closeErr = d.db.Close()
	})
	return d.closeErr
}
