// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package storage defines the persistence contract for subscriptions. The
// topic tree itself is memory only; a store is replayed into it on startup.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidSubscription = errors.New("invalid subscription")
)

// Store is the composite storage interface.
type Store interface {
	// Subscriptions returns the subscription store.
	Subscriptions() SubscriptionStore

	// Close closes the storage backend.
	Close() error
}

// Subscription represents a stored subscription. A subscription is
// identified by client ID, share name and filter.
type Subscription struct {
	SubscriptionID *uint32          `json:"subscription_id,omitempty"`
	ClientID       string           `json:"client_id"`
	Filter         string           `json:"filter"`
	ShareName      string           `json:"share_name,omitempty"`
	Options        SubscribeOptions `json:"options"`
	QoS            byte             `json:"qos"`
}

// SubscribeOptions holds MQTT 5.0 subscription options.
type SubscribeOptions struct {
	NoLocal           bool `json:"no_local,omitempty"`           // Don't receive own messages
	RetainAsPublished bool `json:"retain_as_published,omitempty"` // Keep original retain flag
}

// Validate checks the mandatory fields.
func (s *Subscription) Validate() error {
	if s.ClientID == "" {
		return fmt.Errorf("%w: client id must not be empty", ErrInvalidSubscription)
	}
	if s.Filter == "" {
		return fmt.Errorf("%w: filter must not be empty", ErrInvalidSubscription)
	}
	if strings.ContainsRune(s.ClientID, 0) || strings.ContainsRune(s.ShareName, 0) || strings.ContainsRune(s.Filter, 0) {
		return fmt.Errorf("%w: subscription fields must not contain NUL", ErrInvalidSubscription)
	}
	if s.QoS > 2 {
		return fmt.Errorf("%w: qos must be 0, 1 or 2, got %d", ErrInvalidSubscription, s.QoS)
	}
	return nil
}

// CopySubscription creates a copy of a subscription.
func CopySubscription(sub *Subscription) *Subscription {
	if sub == nil {
		return nil
	}
	cp := *sub
	if sub.SubscriptionID != nil {
		id := *sub.SubscriptionID
		cp.SubscriptionID = &id
	}
	return &cp
}

// SubscriptionStore handles subscription persistence.
type SubscriptionStore interface {
	// Add adds or updates a subscription.
	Add(sub *Subscription) error

	// Remove removes a subscription. Removing a missing subscription is not an error.
	Remove(clientID, filter, shareName string) error

	// RemoveAll removes all subscriptions for a client.
	RemoveAll(clientID string) error

	// GetForClient returns all subscriptions for a client.
	GetForClient(clientID string) ([]*Subscription, error)

	// ForEach calls fn for every stored subscription and stops at the first
	// error returned by fn.
	ForEach(fn func(*Subscription) error) error

	// Count returns total subscription count.
	Count() int
}
