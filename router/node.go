// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

// node is one level of a segment trie. Both subscriber stores are allocated
// on first use and released again once they become empty.
type node struct {
	part     string
	exact    *subscriberStore // subscriptions ending at this level
	wildcard *subscriberStore // subscriptions ending in "/#" below this level
	children slots[node]
}

func newNode(part string) *node {
	return &node{part: part}
}

func partKey(n *node) string {
	return n.part
}

func (n *node) child(part string) *node {
	return n.children.get(part, partKey)
}

func (n *node) addChildIfAbsent(part string, threshold int) *node {
	return n.children.getOrPut(part, func() *node { return newNode(part) }, partKey, threshold)
}

func (n *node) removeChild(c *node) {
	n.children.removeIf(c.part, c, partKey)
}

func (n *node) addExact(sub *Subscriber, filter string, threshold int) bool {
	if n.exact == nil {
		n.exact = &subscriberStore{}
	}
	return n.exact.add(sub, filter, threshold)
}

func (n *node) addWildcard(sub *Subscriber, filter string, threshold int) bool {
	if n.wildcard == nil {
		n.wildcard = &subscriberStore{}
	}
	return n.wildcard.add(sub, filter, threshold)
}

func (n *node) removeExact(clientID, sharedName, filter string) *Subscriber {
	removed := n.exact.remove(clientID, sharedName, filter)
	if n.exact.isEmpty() {
		n.exact = nil
	}
	return removed
}

func (n *node) removeWildcard(clientID, sharedName, filter string) *Subscriber {
	removed := n.wildcard.remove(clientID, sharedName, filter)
	if n.wildcard.isEmpty() {
		n.wildcard = nil
	}
	return removed
}

// removeFunc removes matching subscribers from n and its descendants and
// prunes children left empty.
func (n *node) removeFunc(pred func(*Subscriber) bool) int {
	removed := n.exact.removeFunc(pred) + n.wildcard.removeFunc(pred)
	if n.exact.isEmpty() {
		n.exact = nil
	}
	if n.wildcard.isEmpty() {
		n.wildcard = nil
	}
	for c := range n.children.all() {
		removed += c.removeFunc(pred)
		if c.isEmpty() {
			n.removeChild(c)
		}
	}
	return removed
}

func (n *node) isEmpty() bool {
	return n.exact.isEmpty() && n.wildcard.isEmpty() && n.children.empty()
}
