// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import "sync"

// candidate is a matched subscriber before deduplication. filter is only set
// for shared subscribers.
type candidate struct {
	sub    *Subscriber
	filter string
}

// Pool for candidate slices to reduce allocations in GetSubscribers.
var candidatePool = sync.Pool{
	New: func() any {
		s := make([]candidate, 0, 64)
		return &s
	},
}

func acquireCandidates() *[]candidate {
	return candidatePool.Get().(*[]candidate)
}

// releaseCandidates clears the slice so pooled memory does not pin
// subscribers, then returns it to the pool.
func releaseCandidates(s *[]candidate) {
	if s == nil {
		return
	}
	clear(*s)
	*s = (*s)[:0]
	candidatePool.Put(s)
}
