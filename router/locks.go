// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// stripe pads a lock to a cache line.
type stripe struct {
	sync.RWMutex
	_ [40]byte
}

// stripedLocks guards segment tries. Distinct first segments may share a
// stripe; a goroutine never holds more than one stripe at a time.
type stripedLocks struct {
	stripes []stripe
	mask    uint64
}

func newStripedLocks(n int) *stripedLocks {
	size := 1
	for size < n {
		size <<= 1
	}
	return &stripedLocks{
		stripes: make([]stripe, size),
		mask:    uint64(size - 1),
	}
}

func (l *stripedLocks) get(segment string) *sync.RWMutex {
	return &l.stripes[xxhash.Sum64String(segment)&l.mask].RWMutex
}

func (l *stripedLocks) len() int {
	return len(l.stripes)
}
