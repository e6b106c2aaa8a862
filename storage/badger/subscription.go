// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package badger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/absmach/topictree/storage"
	"github.com/dgraph-io/badger/v4"
)

var _ storage.SubscriptionStore = (*SubscriptionStore)(nil)

const (
	subPrefix = "sub:"
	// keySep never appears in a valid subscription, see storage.Subscription.Validate.
	keySep = "\x00"
)

// SubscriptionStore implements storage.SubscriptionStore using BadgerDB.
//
// Key format: sub:{clientID}\x00{shareName}\x00{filter}.
type SubscriptionStore struct {
	db    *badger.DB
	count atomic.Int64 // Cached subscription count
}

// NewSubscriptionStore creates a new BadgerDB subscription store.
func NewSubscriptionStore(db *badger.DB) (*SubscriptionStore, error) {
	s := &SubscriptionStore{db: db}
	if err := s.refreshCount(); err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return s, nil
}

func subKey(clientID, shareName, filter string) []byte {
	return []byte(subPrefix + clientID + keySep + shareName + keySep + filter)
}

func clientPrefix(clientID string) []byte {
	return []byte(subPrefix + clientID + keySep)
}

// Add adds or updates a subscription.
func (s *SubscriptionStore) Add(sub *storage.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	key := subKey(sub.ClientID, sub.ShareName, sub.Filter)
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	var isNew bool
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			isNew = true
		case err != nil:
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}

	if isNew {
		s.count.Add(1)
	}
	return nil
}

// Remove removes a subscription.
func (s *SubscriptionStore) Remove(clientID, filter, shareName string) error {
	key := subKey(clientID, shareName, filter)

	var removed bool
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}

	if removed {
		s.count.Add(-1)
	}
	return nil
}

// RemoveAll removes all subscriptions for a client.
func (s *SubscriptionStore) RemoveAll(clientID string) error {
	var removed int64
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = clientPrefix(clientID)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		removed = int64(len(keys))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove subscriptions of %s: %w", clientID, err)
	}

	s.count.Add(-removed)
	return nil
}

// GetForClient returns all subscriptions for a client.
func (s *SubscriptionStore) GetForClient(clientID string) ([]*storage.Subscription, error) {
	var subs []*storage.Subscription
	err := s.scan(clientPrefix(clientID), func(sub *storage.Subscription) error {
		subs = append(subs, sub)
		return nil
	})
	return subs, err
}

// ForEach calls fn for every stored subscription inside one read
// transaction.
func (s *SubscriptionStore) ForEach(fn func(*storage.Subscription) error) error {
	return s.scan([]byte(subPrefix), fn)
}

func (s *SubscriptionStore) scan(prefix []byte, fn func(*storage.Subscription) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			sub, err := decode(it.Item())
			if err != nil {
				return err
			}
			if err := fn(sub); err != nil {
				return err
			}
		}
		return nil
	})
}

func decode(item *badger.Item) (*storage.Subscription, error) {
	var sub storage.Subscription
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &sub)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription %q: %w", item.Key(), err)
	}
	return &sub, nil
}

// Count returns total subscription count.
func (s *SubscriptionStore) Count() int {
	return int(s.count.Load())
}

// refreshCount recalculates the subscription count by scanning the database.
// Called on initialization.
func (s *SubscriptionStore) refreshCount() error {
	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(subPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.count.Store(count)
	return nil
}
