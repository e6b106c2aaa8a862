// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package memory provides in-memory storage, used in tests and when
// persistence is disabled.
package memory

import (
	"sync"

	"github.com/absmach/topictree/storage"
)

var (
	_ storage.Store             = (*Store)(nil)
	_ storage.SubscriptionStore = (*SubscriptionStore)(nil)
)

// Store is the in-memory composite store.
type Store struct {
	subscriptions *SubscriptionStore
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{subscriptions: NewSubscriptionStore()}
}

// Subscriptions returns the subscription store.
func (s *Store) Subscriptions() storage.SubscriptionStore {
	return s.subscriptions
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

type subKey struct {
	shareName string
	filter    string
}

// SubscriptionStore is an in-memory implementation of storage.SubscriptionStore.
type SubscriptionStore struct {
	mu    sync.RWMutex
	count int
	// clientID -> (share, filter) -> subscription
	byClient map[string]map[subKey]*storage.Subscription
}

// NewSubscriptionStore creates a new in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		byClient: make(map[string]map[subKey]*storage.Subscription),
	}
}

// Add adds or updates a subscription.
func (s *SubscriptionStore) Add(sub *storage.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clientSubs, ok := s.byClient[sub.ClientID]
	if !ok {
		clientSubs = make(map[subKey]*storage.Subscription)
		s.byClient[sub.ClientID] = clientSubs
	}

	key := subKey{shareName: sub.ShareName, filter: sub.Filter}
	if _, exists := clientSubs[key]; !exists {
		s.count++
	}
	clientSubs[key] = storage.CopySubscription(sub)

	return nil
}

// Remove removes a subscription.
func (s *SubscriptionStore) Remove(clientID, filter, shareName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clientSubs, ok := s.byClient[clientID]
	if !ok {
		return nil
	}

	key := subKey{shareName: shareName, filter: filter}
	if _, exists := clientSubs[key]; !exists {
		return nil
	}
	delete(clientSubs, key)
	s.count--

	if len(clientSubs) == 0 {
		delete(s.byClient, clientID)
	}
	return nil
}

// RemoveAll removes all subscriptions for a client.
func (s *SubscriptionStore) RemoveAll(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count -= len(s.byClient[clientID])
	delete(s.byClient, clientID)
	return nil
}

// GetForClient returns all subscriptions for a client.
func (s *SubscriptionStore) GetForClient(clientID string) ([]*storage.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clientSubs := s.byClient[clientID]
	subs := make([]*storage.Subscription, 0, len(clientSubs))
	for _, sub := range clientSubs {
		subs = append(subs, storage.CopySubscription(sub))
	}
	return subs, nil
}

// ForEach calls fn with a copy of every subscription. fn must not call back
// into the store.
func (s *SubscriptionStore) ForEach(fn func(*storage.Subscription) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, clientSubs := range s.byClient {
		for _, sub := range clientSubs {
			if err := fn(storage.CopySubscription(sub)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count returns total subscription count.
func (s *SubscriptionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count
}
