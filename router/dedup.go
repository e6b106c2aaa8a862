// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"cmp"
	"slices"
)

func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(a.sub.ClientID, b.sub.ClientID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.filter, b.filter); c != 0 {
		return c
	}
	return cmp.Compare(a.sub.SharedName, b.sub.SharedName)
}

// merge coalesces candidates with the same client, filter and share name into
// one Match carrying the highest QoS and every subscription identifier in
// scan order. Flags are taken from the first candidate of a run.
func merge(cands []candidate) []Match {
	if len(cands) == 0 {
		return nil
	}

	slices.SortStableFunc(cands, compareCandidates)

	out := make([]Match, 0, len(cands))
	for i, c := range cands {
		if i > 0 && compareCandidates(cands[i-1], c) == 0 {
			m := &out[len(out)-1]
			m.QoS = max(m.QoS, c.sub.QoS)
			if c.sub.SubscriptionID != nil {
				m.SubscriptionIDs = append(m.SubscriptionIDs, *c.sub.SubscriptionID)
			}
			continue
		}

		m := Match{
			ClientID:    c.sub.ClientID,
			SharedName:  c.sub.SharedName,
			TopicFilter: c.filter,
			QoS:         c.sub.QoS,
			Flags:       c.sub.Flags,
		}
		if c.sub.SubscriptionID != nil {
			m.SubscriptionIDs = []uint32{*c.sub.SubscriptionID}
		}
		out = append(out, m)
	}
	return out
}
