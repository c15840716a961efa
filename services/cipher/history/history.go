// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists finished searches in BadgerDB.
package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/session"
	"github.com/AleutianAI/monosub/services/cipher/storage/badger"
)

const (
	recordPrefix = "search/"
	indexPrefix  = "search-id/"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("search record not found")

// Record describes one finished search.
type Record struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Reason           string    `json:"reason"`
	Iterations       int       `json:"iterations"`
	BestScore        int       `json:"best_score"`
	Key              key.Key   `json:"key"`
	Fixed            string    `json:"fixed,omitempty"`
	CiphertextDigest string    `json:"ciphertext_digest"`
	CiphertextLength int       `json:"ciphertext_length"`
	Scorer           string    `json:"scorer"`
	Seed             uint64    `json:"seed"`
}

// Store is a BadgerDB-backed search history.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db *badger.DB
}

// NewStore wraps an open database.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Digest returns the hex SHA-256 of ciphertext.
func Digest(ciphertext string) string {
	sum := sha256.Sum256([]byte(ciphertext))
	return hex.EncodeToString(sum[:])
}

// Put stores rec, assigning an ID when it has none.
func (s *Store) Put(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	primary := recordKey(rec)
	if err := s.db.PutJSON(primary, rec); err != nil {
		return fmt.Errorf("put search %s: %w", rec.ID, err)
	}
	if err := s.db.PutJSON([]byte(indexPrefix+rec.ID), string(primary)); err != nil {
		return fmt.Errorf("index search %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record with id.
func (s *Store) Get(id string) (*Record, error) {
	var primary string
	if err := s.db.GetJSON([]byte(indexPrefix+id), &primary); err != nil {
		if errors.Is(err, badger.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup search %s: %w", id, err)
	}
	var rec Record
	if err := s.db.GetJSON([]byte(primary), &rec); err != nil {
		if errors.Is(err, badger.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get search %s: %w", id, err)
	}
	return &rec, nil
}

// List returns up to limit records, most recently finished first.
// A non-positive limit returns every record.
func (s *Store) List(limit int) ([]Record, error) {
	var out []Record
	err := s.db.Scan([]byte(recordPrefix), true, limit, func(_, value []byte) error {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	return out, nil
}

// RecordSearch stores a finished session search.
func (s *Store) RecordSearch(_ context.Context, sum session.Summary) error {
	rec := &Record{
		ID:               string(sum.Handle),
		StartedAt:        sum.StartedAt.UTC(),
		FinishedAt:       sum.FinishedAt.UTC(),
		Reason:           sum.Result.Reason.String(),
		Iterations:       sum.Result.Iterations,
		BestScore:        sum.Result.BestScore,
		Key:              sum.Result.BestKey,
		Fixed:            sum.Fixed.String(),
		CiphertextDigest: Digest(sum.Ciphertext),
		CiphertextLength: len(sum.Ciphertext),
		Scorer:           sum.Result.Scorer,
		Seed:             sum.Result.Seed,
	}
	return s.Put(rec)
}

// recordKey orders records by finish time so a reverse scan is newest first.
func recordKey(rec *Record) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", recordPrefix, rec.FinishedAt.UnixNano(), rec.ID))
}
