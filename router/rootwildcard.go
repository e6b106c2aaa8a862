// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import "sync/atomic"

// rootWildcards holds the subscribers of the root "#" filter. The slice is
// immutable; writers install a modified copy with CAS and retry on conflict,
// so readers only perform an atomic load.
type rootWildcards struct {
	subs atomic.Pointer[[]*Subscriber]
}

func (r *rootWildcards) load() []*Subscriber {
	if p := r.subs.Load(); p != nil {
		return *p
	}
	return nil
}

// put adds sub, replacing an entry with the same identity. It reports whether
// such an entry existed. An identical entry leaves the list untouched.
func (r *rootWildcards) put(sub *Subscriber) bool {
	for {
		old := r.subs.Load()
		var cur []*Subscriber
		if old != nil {
			cur = *old
		}

		idx := -1
		for i, s := range cur {
			if s.sameIdentity(sub.ClientID, sub.SharedName) {
				idx = i
				break
			}
		}
		if idx >= 0 && cur[idx].equal(sub) {
			return true
		}

		next := make([]*Subscriber, len(cur), len(cur)+1)
		copy(next, cur)
		if idx >= 0 {
			next[idx] = sub
		} else {
			next = append(next, sub)
		}
		if r.subs.CompareAndSwap(old, &next) {
			return idx >= 0
		}
	}
}

// removeFunc drops every entry matching pred and returns how many were
// dropped.
func (r *rootWildcards) removeFunc(pred func(*Subscriber) bool) int {
	for {
		old := r.subs.Load()
		if old == nil {
			return 0
		}

		next := make([]*Subscriber, 0, len(*old))
		for _, s := range *old {
			if !pred(s) {
				next = append(next, s)
			}
		}
		removed := len(*old) - len(next)
		if removed == 0 {
			return 0
		}
		if r.subs.CompareAndSwap(old, &next) {
			return removed
		}
	}
}

func (r *rootWildcards) remove(clientID, sharedName string) int {
	return r.removeFunc(func(s *Subscriber) bool {
		return s.sameIdentity(clientID, sharedName)
	})
}
