// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"slices"
	"strings"

	"github.com/absmach/topictree/topics"
)

// traversal walks a segment trie for one published topic. path holds the
// node parts of the current branch and is only joined when a shared
// subscriber needs its filter.
type traversal struct {
	parts []string
	path  []string
	visit func(tr *traversal, sub *Subscriber, wildcard bool)
}

func (tr *traversal) filter(wildcard bool) string {
	f := strings.Join(tr.path, topics.Separator)
	if wildcard {
		f += topics.Separator + topics.MultiLevelWildcard
	}
	return f
}

// walk matches n against parts[depth]. Wildcard subscribers of a matching
// node are always collected; exact subscribers only at the last level.
func (tr *traversal) walk(n *node, depth int) {
	if n.part != tr.parts[depth] && n.part != topics.SingleLevelWildcard {
		return
	}

	tr.path = append(tr.path, n.part)

	for sub := range n.wildcard.all(nil) {
		tr.visit(tr, sub, true)
	}

	switch {
	case depth == len(tr.parts)-1:
		for sub := range n.exact.all(nil) {
			tr.visit(tr, sub, false)
		}
	case n.children.indexed():
		next := tr.parts[depth+1]
		if c, ok := n.children.index[next]; ok {
			tr.walk(c, depth+1)
		}
		if next != topics.SingleLevelWildcard {
			if c, ok := n.children.index[topics.SingleLevelWildcard]; ok {
				tr.walk(c, depth+1)
			}
		}
	default:
		for _, c := range n.children.items {
			if c != nil {
				tr.walk(c, depth+1)
			}
		}
	}

	tr.path = tr.path[:len(tr.path)-1]
}

// walkSegment runs tr over the trie of one first level under its read lock.
func (t *TopicTree) walkSegment(segment string, tr *traversal) {
	lock := t.locks.get(segment)
	lock.RLock()
	defer lock.RUnlock()

	if root, ok := t.segments.Load(segment); ok {
		tr.walk(root, 0)
	}
}

// match visits every subscriber whose filter matches topic.
func (t *TopicTree) match(topic string, excludeRootLevelWildcard bool, visit func(tr *traversal, sub *Subscriber, wildcard bool)) {
	tr := &traversal{visit: visit}

	if !excludeRootLevelWildcard {
		tr.path = append(tr.path[:0], topics.MultiLevelWildcard)
		for _, sub := range t.rootWildcards.load() {
			visit(tr, sub, false)
		}
		tr.path = tr.path[:0]
	}

	if topic == "" || t.segments.Size() == 0 {
		return
	}

	tr.parts = topics.Split(topic)
	tr.path = make([]string, 0, len(tr.parts))

	first := tr.parts[0]
	t.walkSegment(first, tr)
	if !excludeRootLevelWildcard && first != topics.SingleLevelWildcard {
		t.walkSegment(topics.SingleLevelWildcard, tr)
	}
}

// GetSubscribers returns the deduplicated subscribers matching topic. With
// excludeRootLevelWildcard set, subscriptions to "#" and to filters starting
// with "+" are skipped.
func (t *TopicTree) GetSubscribers(topic string, excludeRootLevelWildcard bool) []Match {
	buf := acquireCandidates()
	defer releaseCandidates(buf)

	t.match(topic, excludeRootLevelWildcard, func(tr *traversal, sub *Subscriber, wildcard bool) {
		c := candidate{sub: sub}
		if sub.IsShared() {
			c.filter = tr.filter(wildcard)
		}
		*buf = append(*buf, c)
	})

	return merge(*buf)
}

// GetSubscribersForTopic returns the sorted, distinct client IDs of the
// subscribers matching topic that pass filter.
func (t *TopicTree) GetSubscribersForTopic(topic string, filter ItemFilter, excludeRootLevelWildcard bool) []string {
	var ids []string
	t.match(topic, excludeRootLevelWildcard, func(_ *traversal, sub *Subscriber, _ bool) {
		if filter.check(sub) {
			ids = append(ids, sub.ClientID)
		}
	})

	slices.Sort(ids)
	return slices.Compact(ids)
}
