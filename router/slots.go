// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import "iter"

// slots is the storage of one node collection (children or non-shared
// subscribers). It starts as a sparse array and turns into a map once the
// number of live entries exceeds the configured threshold. The conversion is
// one way.
//
// Sparse array: nil entries are holes left by removals. An insert replaces an
// entry with the same key, else fills the first hole, else grows the array by
// exactly one slot. Removals never shrink the array.
type slots[T any] struct {
	items []*T
	index map[string]*T
}

func (s *slots[T]) indexed() bool {
	return s.index != nil
}

func (s *slots[T]) get(key string, keyOf func(*T) string) *T {
	if s.index != nil {
		return s.index[key]
	}
	for _, item := range s.items {
		if item != nil && keyOf(item) == key {
			return item
		}
	}
	return nil
}

// put stores v and returns the entry it replaced, if any.
func (s *slots[T]) put(v *T, keyOf func(*T) string, threshold int) *T {
	if s.index == nil && s.len() > threshold {
		s.promote(keyOf)
	}

	key := keyOf(v)
	if s.index != nil {
		prev := s.index[key]
		s.index[key] = v
		return prev
	}

	hole := -1
	for i, item := range s.items {
		if item == nil {
			if hole < 0 {
				hole = i
			}
			continue
		}
		if keyOf(item) == key {
			s.items[i] = v
			return item
		}
	}
	if hole >= 0 {
		s.items[hole] = v
		return nil
	}

	grown := make([]*T, len(s.items)+1)
	copy(grown, s.items)
	grown[len(s.items)] = v
	s.items = grown
	return nil
}

// getOrPut returns the entry stored under key, creating it if absent.
func (s *slots[T]) getOrPut(key string, create func() *T, keyOf func(*T) string, threshold int) *T {
	if existing := s.get(key, keyOf); existing != nil {
		return existing
	}
	v := create()
	s.put(v, keyOf, threshold)
	return v
}

func (s *slots[T]) remove(key string, keyOf func(*T) string) *T {
	if s.index != nil {
		prev, ok := s.index[key]
		if ok {
			delete(s.index, key)
		}
		return prev
	}
	for i, item := range s.items {
		if item != nil && keyOf(item) == key {
			s.items[i] = nil
			return item
		}
	}
	return nil
}

// removeIf removes v only if it is the entry stored under key.
func (s *slots[T]) removeIf(key string, v *T, keyOf func(*T) string) bool {
	if s.index != nil {
		if s.index[key] == v {
			delete(s.index, key)
			return true
		}
		return false
	}
	for i, item := range s.items {
		if item == v {
			s.items[i] = nil
			return true
		}
	}
	return false
}

func (s *slots[T]) promote(keyOf func(*T) string) {
	index := make(map[string]*T, len(s.items)+1)
	for _, item := range s.items {
		if item != nil {
			index[keyOf(item)] = item
		}
	}
	s.index = index
	s.items = nil
}

// len returns the number of live entries. It scans the array when no index
// exists.
func (s *slots[T]) len() int {
	if s.index != nil {
		return len(s.index)
	}
	n := 0
	for _, item := range s.items {
		if item != nil {
			n++
		}
	}
	return n
}

func (s *slots[T]) empty() bool {
	if s.index != nil {
		return len(s.index) == 0
	}
	for _, item := range s.items {
		if item != nil {
			return false
		}
	}
	return true
}

// all yields the live entries. Removing the yielded entry during iteration
// is allowed.
func (s *slots[T]) all() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		if s.index != nil {
			for _, item := range s.index {
				if !yield(item) {
					return
				}
			}
			return
		}
		for _, item := range s.items {
			if item != nil && !yield(item) {
				return
			}
		}
	}
}
