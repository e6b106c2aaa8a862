// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"cmp"
	"slices"

	"github.com/absmach/topictree/topics"
)

// byFilter collects the subscribers stored for exactly filter. The filter is
// walked literally: "+" only finds subscriptions made with "+" at that level.
func (t *TopicTree) byFilter(filter string, pred func(*Subscriber) bool) []*Subscriber {
	if filter == "" {
		return nil
	}

	if filter == topics.MultiLevelWildcard {
		var out []*Subscriber
		for _, sub := range t.rootWildcards.load() {
			if pred == nil || pred(sub) {
				out = append(out, sub)
			}
		}
		return out
	}

	parts := topics.Split(filter)
	first := parts[0]

	lock := t.locks.get(first)
	lock.RLock()
	defer lock.RUnlock()

	n, ok := t.segments.Load(first)
	if !ok {
		return nil
	}

	last := len(parts) - 1
	wildcard := last > 0 && parts[last] == topics.MultiLevelWildcard
	end := last
	if wildcard {
		end--
	}
	for i := 1; i <= end; i++ {
		if n = n.child(parts[i]); n == nil {
			return nil
		}
	}

	store := n.exact
	if wildcard {
		store = n.wildcard
	}
	return slices.Collect(store.all(pred))
}

// GetSharedSubscriber returns the members of a shared group subscribed to
// topicFilter, sorted by client ID. Each entry carries topicFilter.
func (t *TopicTree) GetSharedSubscriber(group, topicFilter string) []Subscriber {
	if group == "" {
		return nil
	}

	subs := t.byFilter(topicFilter, func(s *Subscriber) bool {
		return s.SharedName == group
	})
	if len(subs) == 0 {
		return nil
	}

	out := make([]Subscriber, len(subs))
	for i, s := range subs {
		out[i] = s.withFilter(topicFilter)
	}
	slices.SortFunc(out, func(a, b Subscriber) int {
		return cmp.Compare(a.ClientID, b.ClientID)
	})
	return out
}

// GetSubscribersWithFilter returns the sorted, distinct client IDs subscribed
// to exactly topicFilter that pass filter.
func (t *TopicTree) GetSubscribersWithFilter(topicFilter string, filter ItemFilter) []string {
	subs := t.byFilter(topicFilter, filter.check)
	if len(subs) == 0 {
		return nil
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ClientID
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// GetSubscriber returns the merged subscription of clientID matching topic.
// A non-shared match wins; otherwise the shared match with the highest QoS
// is returned.
func (t *TopicTree) GetSubscriber(clientID, topic string) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, m := range t.GetSubscribers(topic, false) {
		if m.ClientID != clientID {
			continue
		}
		if !m.IsShared() {
			return m, true
		}
		if !found || m.QoS > best.QoS {
			best, found = m, true
		}
	}
	return best, found
}
