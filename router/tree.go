// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package router implements the subscription index of the broker: a forest of
// topic tries, one per first topic level, guarded by striped locks.
package router

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/absmach/topictree/topics"
	"github.com/puzpuzpuz/xsync/v4"
)

// ErrInvalidArgument is returned for calls with missing mandatory arguments.
var ErrInvalidArgument = topics.ErrInvalidArgument

const (
	DefaultChildIndexThreshold      = 16
	DefaultSubscriberIndexThreshold = 16
	DefaultLockStripes              = 64
	DefaultMaxSegments              = topics.MaxLevels
)

// Config tunes the tree. Zero or negative fields fall back to defaults.
type Config struct {
	// ChildIndexThreshold is the number of children a node keeps in its
	// array before switching to a map.
	ChildIndexThreshold int
	// SubscriberIndexThreshold does the same for non-shared subscribers.
	SubscriberIndexThreshold int
	// LockStripes is rounded up to a power of two.
	LockStripes int
	// MaxSegments rejects longer topic filters.
	MaxSegments int
}

// DefaultConfig returns the default tree configuration.
func DefaultConfig() Config {
	return Config{
		ChildIndexThreshold:      DefaultChildIndexThreshold,
		SubscriberIndexThreshold: DefaultSubscriberIndexThreshold,
		LockStripes:              DefaultLockStripes,
		MaxSegments:              DefaultMaxSegments,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChildIndexThreshold <= 0 {
		c.ChildIndexThreshold = d.ChildIndexThreshold
	}
	if c.SubscriberIndexThreshold <= 0 {
		c.SubscriberIndexThreshold = d.SubscriberIndexThreshold
	}
	if c.LockStripes <= 0 {
		c.LockStripes = d.LockStripes
	}
	if c.MaxSegments <= 0 {
		c.MaxSegments = d.MaxSegments
	}
	return c
}

// Counter receives changes of the live subscription count.
type Counter interface {
	Add(delta int64)
}

type nopCounter struct{}

func (nopCounter) Add(int64) {}

// TopicTree indexes subscriptions by topic filter.
//
// Each first topic level owns a trie guarded by the stripe its level hashes
// to. Writers hold the stripe write lock for the whole walk. Readers take the
// read lock once for the literal first level and once more for the "+" trie,
// so a match is not atomic across the two. The root "#" subscribers live
// outside the tries in a copy-on-write list.
type TopicTree struct {
	cfg           Config
	logger        *slog.Logger
	counter       Counter
	count         atomic.Int64
	locks         *stripedLocks
	segments      *xsync.Map[string, *node]
	rootWildcards rootWildcards
}

// New creates an empty topic tree. counter and logger may be nil.
func New(cfg Config, counter Counter, logger *slog.Logger) *TopicTree {
	cfg = cfg.withDefaults()
	if counter == nil {
		counter = nopCounter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TopicTree{
		cfg:      cfg,
		logger:   logger,
		counter:  counter,
		locks:    newStripedLocks(cfg.LockStripes),
		segments: xsync.NewMap[string, *node](),
	}
}

// AddTopic subscribes clientID to topic. A non-empty sharedGroup makes it a
// shared subscription. The returned flag reports whether a subscription with
// the same client, filter and group already existed and was replaced.
func (t *TopicTree) AddTopic(clientID string, topic Topic, flags Flags, sharedGroup string) (bool, error) {
	if clientID == "" {
		return false, fmt.Errorf("%w: client id must not be empty", ErrInvalidArgument)
	}

	filter := topic.Filter
	if filter == "" {
		t.logger.Debug("Tried to add an empty topic to the topic tree", slog.String("client_id", clientID))
		return false, nil
	}

	if segments := topics.Levels(filter); segments > t.cfg.MaxSegments {
		t.logger.Warn("Subscription rejected, topic filter has too many levels",
			slog.String("client_id", clientID),
			slog.Int("segments", segments),
			slog.Int("max_segments", t.cfg.MaxSegments))
		return false, nil
	}

	if sharedGroup != "" {
		flags |= FlagShared
	} else {
		flags &^= FlagShared
	}
	sub := &Subscriber{
		SubscriptionID: topic.SubscriptionID,
		ClientID:       clientID,
		SharedName:     sharedGroup,
		QoS:            topic.QoS,
		Flags:          flags,
	}

	if filter == topics.MultiLevelWildcard {
		replaced := t.rootWildcards.put(sub)
		if !replaced {
			t.incr(1)
		}
		return replaced, nil
	}

	parts := topics.Split(filter)
	first := parts[0]

	lock := t.locks.get(first)
	lock.Lock()
	defer lock.Unlock()

	n, ok := t.segments.Load(first)
	if !ok {
		n = newNode(first)
		t.segments.Store(first, n)
	}

	last := len(parts) - 1
	var replaced bool
	for i := 1; ; i++ {
		if i > last {
			replaced = n.addExact(sub, filter, t.cfg.SubscriberIndexThreshold)
			break
		}
		if i == last && parts[i] == topics.MultiLevelWildcard {
			replaced = n.addWildcard(sub, filter, t.cfg.SubscriberIndexThreshold)
			break
		}
		n = n.addChildIfAbsent(parts[i], t.cfg.ChildIndexThreshold)
	}

	if !replaced {
		t.incr(1)
	}
	return replaced, nil
}

// RemoveSubscriber removes the subscription of clientID to filter in the
// given shared group (empty for a non-shared subscription). Nodes left
// without subscribers and children are pruned.
func (t *TopicTree) RemoveSubscriber(clientID, filter, sharedGroup string) error {
	if clientID == "" {
		return fmt.Errorf("%w: client id must not be empty", ErrInvalidArgument)
	}
	if filter == "" {
		t.logger.Debug("Tried to remove an empty topic from the topic tree", slog.String("client_id", clientID))
		return nil
	}

	if filter == topics.MultiLevelWildcard {
		if removed := t.rootWildcards.remove(clientID, sharedGroup); removed > 0 {
			t.incr(-int64(removed))
		}
		return nil
	}

	if t.segments.Size() == 0 {
		return nil
	}

	parts := topics.Split(filter)
	first := parts[0]

	lock := t.locks.get(first)
	lock.Lock()
	defer lock.Unlock()

	root, ok := t.segments.Load(first)
	if !ok {
		return nil
	}

	last := len(parts) - 1
	wildcard := last > 0 && parts[last] == topics.MultiLevelWildcard
	end := last
	if wildcard {
		end--
	}

	path := make([]*node, 1, end+1)
	path[0] = root
	n := root
	for i := 1; i <= end; i++ {
		if n = n.child(parts[i]); n == nil {
			return nil
		}
		path = append(path, n)
	}

	var removed *Subscriber
	if wildcard {
		removed = n.removeWildcard(clientID, sharedGroup, filter)
	} else {
		removed = n.removeExact(clientID, sharedGroup, filter)
	}
	if removed == nil {
		return nil
	}

	t.incr(-1)
	t.prune(path)
	return nil
}

// prune detaches empty nodes bottom-up along path and drops the segment root
// once it is empty. Caller holds the write lock of the segment.
func (t *TopicTree) prune(path []*node) {
	for i := len(path) - 1; i > 0; i-- {
		if !path[i].isEmpty() {
			return
		}
		path[i-1].removeChild(path[i])
	}
	if path[0].isEmpty() {
		t.segments.Delete(path[0].part)
	}
}

// RemoveClient removes every subscription of clientID and returns how many
// were removed.
func (t *TopicTree) RemoveClient(clientID string) int {
	if clientID == "" {
		return 0
	}

	owned := func(s *Subscriber) bool { return s.ClientID == clientID }
	removed := t.rootWildcards.removeFunc(owned)
	if removed > 0 {
		t.incr(-int64(removed))
	}

	var keys []string
	t.segments.Range(func(key string, _ *node) bool {
		keys = append(keys, key)
		return true
	})

	for _, key := range keys {
		removed += t.removeFromSegment(key, owned)
	}

	if removed > 0 {
		t.logger.Debug("Removed client subscriptions from the topic tree",
			slog.String("client_id", clientID),
			slog.Int("count", removed))
	}
	return removed
}

func (t *TopicTree) removeFromSegment(key string, pred func(*Subscriber) bool) int {
	lock := t.locks.get(key)
	lock.Lock()
	defer lock.Unlock()

	root, ok := t.segments.Load(key)
	if !ok {
		return 0
	}
	removed := root.removeFunc(pred)
	if removed > 0 {
		t.incr(-int64(removed))
	}
	if root.isEmpty() {
		t.segments.Delete(key)
	}
	return removed
}

// Count returns the number of live subscriptions.
func (t *TopicTree) Count() int64 {
	return t.count.Load()
}

func (t *TopicTree) incr(delta int64) {
	t.count.Add(delta)
	t.counter.Add(delta)
}

// Stats describes the shape of the tree.
type Stats struct {
	Subscriptions int64
	RootWildcards int
	Segments      int
	Nodes         int
	IndexedNodes  int
	LockStripes   int
}

// Stats walks every segment under its read lock.
func (t *TopicTree) Stats() Stats {
	st := Stats{
		Subscriptions: t.Count(),
		RootWildcards: len(t.rootWildcards.load()),
		LockStripes:   t.locks.len(),
	}

	var keys []string
	t.segments.Range(func(key string, _ *node) bool {
		keys = append(keys, key)
		return true
	})

	for _, key := range keys {
		lock := t.locks.get(key)
		lock.RLock()
		if root, ok := t.segments.Load(key); ok {
			st.Segments++
			countNodes(root, &st)
		}
		lock.RUnlock()
	}
	return st
}

func countNodes(n *node, st *Stats) {
	st.Nodes++
	if n.children.indexed() {
		st.IndexedNodes++
	}
	for c := range n.children.all() {
		countNodes(c, st)
	}
}
