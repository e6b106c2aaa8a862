// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import "iter"

// subscriberStore holds the subscribers of one node and kind (exact or
// wildcard). Non-shared subscribers are keyed by client ID. Shared
// subscribers are grouped by share name and topic filter; each group is keyed
// by client ID.
//
// A nil store is empty. Read methods are safe to call on nil.
type subscriberStore struct {
	nonShared slots[Subscriber]
	shared    map[string]map[string]*Subscriber
}

func clientKey(s *Subscriber) string {
	return s.ClientID
}

func groupKey(sharedName, filter string) string {
	return sharedName + "/" + filter
}

// add stores sub and reports whether an entry with the same identity was
// replaced.
func (s *subscriberStore) add(sub *Subscriber, filter string, threshold int) bool {
	if !sub.IsShared() {
		return s.nonShared.put(sub, clientKey, threshold) != nil
	}

	if s.shared == nil {
		s.shared = make(map[string]map[string]*Subscriber)
	}
	key := groupKey(sub.SharedName, filter)
	group, ok := s.shared[key]
	if !ok {
		group = make(map[string]*Subscriber, 1)
		s.shared[key] = group
	}
	_, replaced := group[sub.ClientID]
	group[sub.ClientID] = sub
	return replaced
}

func (s *subscriberStore) remove(clientID, sharedName, filter string) *Subscriber {
	if s == nil {
		return nil
	}
	if sharedName == "" {
		return s.nonShared.remove(clientID, clientKey)
	}

	key := groupKey(sharedName, filter)
	group, ok := s.shared[key]
	if !ok {
		return nil
	}
	prev, ok := group[clientID]
	if !ok {
		return nil
	}
	delete(group, clientID)
	if len(group) == 0 {
		delete(s.shared, key)
	}
	return prev
}

// removeFunc removes every subscriber matching pred and returns how many
// were removed.
func (s *subscriberStore) removeFunc(pred func(*Subscriber) bool) int {
	if s == nil {
		return 0
	}

	removed := 0
	for key, group := range s.shared {
		for clientID, sub := range group {
			if pred(sub) {
				delete(group, clientID)
				removed++
			}
		}
		if len(group) == 0 {
			delete(s.shared, key)
		}
	}
	for sub := range s.nonShared.all() {
		if pred(sub) {
			s.nonShared.remove(sub.ClientID, clientKey)
			removed++
		}
	}
	return removed
}

// all yields shared members first, then non-shared subscribers. A nil pred
// accepts everything.
func (s *subscriberStore) all(pred func(*Subscriber) bool) iter.Seq[*Subscriber] {
	return func(yield func(*Subscriber) bool) {
		if s == nil {
			return
		}
		for _, group := range s.shared {
			for _, sub := range group {
				if (pred == nil || pred(sub)) && !yield(sub) {
					return
				}
			}
		}
		for sub := range s.nonShared.all() {
			if (pred == nil || pred(sub)) && !yield(sub) {
				return
			}
		}
	}
}

func (s *subscriberStore) count() int {
	if s == nil {
		return 0
	}
	n := s.nonShared.len()
	for _, group := range s.shared {
		n += len(group)
	}
	return n
}

func (s *subscriberStore) isEmpty() bool {
	return s == nil || (len(s.shared) == 0 && s.nonShared.empty())
}
