// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package badger provides BadgerDB-backed persistence.
package badger

import (
	"fmt"
	"sync"
	"time"

	"github.com/absmach/topictree/storage"
	"github.com/dgraph-io/badger/v4"
)

var _ storage.Store = (*Store)(nil)

const gcInterval = 5 * time.Minute

// Store is the composite BadgerDB store.
type Store struct {
	db *badger.DB

	subscriptions *SubscriptionStore

	gcStopCh chan struct{}
	gcDone   chan struct{}
	closed   bool
	mu       sync.Mutex
}

// Config holds BadgerDB configuration.
type Config struct {
	Dir        string // Directory for BadgerDB data
	SyncWrites bool   // fsync every write
}

// New creates a new BadgerDB-backed store.
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = nil // Disable BadgerDB's internal logging
	opts.SyncWrites = cfg.SyncWrites
	opts.NumVersionsToKeep = 1
	opts.NumCompactors = 2

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Dir, err)
	}

	subs, err := NewSubscriptionStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:            db,
		subscriptions: subs,
		gcStopCh:      make(chan struct{}),
		gcDone:        make(chan struct{}),
	}

	// Start background value log GC
	go s.runGC()

	return s, nil
}

// Subscriptions returns the subscription store.
func (s *Store) Subscriptions() storage.SubscriptionStore {
	return s.subscriptions
}

// Close gracefully closes the BadgerDB database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.gcStopCh)
	<-s.gcDone

	return s.db.Close()
}

// runGC runs BadgerDB's value log garbage collection periodically.
func (s *Store) runGC() {
	defer close(s.gcDone)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Returns an error when nothing was rewritten, which is fine.
			_ = s.db.RunValueLogGC(0.5)
		case <-s.gcStopCh:
			return
		}
	}
}
