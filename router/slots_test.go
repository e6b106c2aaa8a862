// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sub(clientID string) *Subscriber {
	return &Subscriber{ClientID: clientID}
}

func TestSlots_ArrayReusesHoles(t *testing.T) {
	var s slots[Subscriber]

	assert.Nil(t, s.put(sub("a"), clientKey, 10))
	assert.Nil(t, s.put(sub("b"), clientKey, 10))
	assert.Nil(t, s.put(sub("c"), clientKey, 10))
	require.Len(t, s.items, 3)

	removed := s.remove("b", clientKey)
	require.NotNil(t, removed)
	assert.Equal(t, "b", removed.ClientID)
	assert.Len(t, s.items, 3, "removal must not shrink the array")
	assert.Nil(t, s.items[1])
	assert.Equal(t, 2, s.len())

	assert.Nil(t, s.put(sub("d"), clientKey, 10))
	assert.Len(t, s.items, 3, "insert must fill the hole")
	assert.Equal(t, "d", s.items[1].ClientID)

	assert.Nil(t, s.put(sub("e"), clientKey, 10))
	assert.Len(t, s.items, 4, "array grows by exactly one")
}

func TestSlots_ReplaceSameKey(t *testing.T) {
	var s slots[Subscriber]

	s.put(sub("a"), clientKey, 10)
	s.remove("a", clientKey)
	s.put(sub("b"), clientKey, 10)

	next := &Subscriber{ClientID: "b", QoS: 2}
	prev := s.put(next, clientKey, 10)
	require.NotNil(t, prev)
	assert.Equal(t, byte(0), prev.QoS)
	assert.Same(t, next, s.get("b", clientKey))
	assert.Equal(t, 1, s.len())
}

func TestSlots_Promotion(t *testing.T) {
	var s slots[Subscriber]

	s.put(sub("a"), clientKey, 2)
	s.put(sub("b"), clientKey, 2)
	s.put(sub("c"), clientKey, 2)
	assert.False(t, s.indexed(), "live count equals threshold before third insert")

	s.put(sub("d"), clientKey, 2)
	require.True(t, s.indexed())
	assert.Nil(t, s.items)
	assert.Equal(t, 4, s.len())

	for _, id := range []string{"a", "b", "c", "d"} {
		assert.NotNil(t, s.get(id, clientKey), id)
	}

	for _, id := range []string{"a", "b", "c", "d"} {
		s.remove(id, clientKey)
	}
	assert.True(t, s.empty())
	assert.True(t, s.indexed(), "index is never converted back")
}

func TestSlots_PromotionSkipsHoles(t *testing.T) {
	var s slots[Subscriber]

	s.put(sub("a"), clientKey, 1)
	s.put(sub("b"), clientKey, 1)
	s.remove("a", clientKey)

	s.put(sub("c"), clientKey, 1)
	assert.False(t, s.indexed(), "holes do not count")

	s.put(sub("d"), clientKey, 1)
	assert.True(t, s.indexed())
	assert.Equal(t, 3, s.len())
}

func TestSlots_GetOrPut(t *testing.T) {
	var s slots[node]

	created := 0
	create := func() *node {
		created++
		return newNode("x")
	}

	a := s.getOrPut("x", create, partKey, 4)
	b := s.getOrPut("x", create, partKey, 4)
	assert.Same(t, a, b)
	assert.Equal(t, 1, created)
}

func TestSlots_RemoveIf(t *testing.T) {
	for _, threshold := range []int{1, 10} {
		var s slots[node]
		a := newNode("a")
		s.put(a, partKey, threshold)
		s.put(newNode("b"), partKey, threshold)
		s.put(newNode("c"), partKey, threshold)

		assert.False(t, s.removeIf("a", newNode("a"), partKey))
		assert.True(t, s.removeIf("a", a, partKey))
		assert.Nil(t, s.get("a", partKey))
	}
}

func TestSlots_AllAllowsRemoval(t *testing.T) {
	for _, threshold := range []int{1, 10} {
		var s slots[Subscriber]
		for _, id := range []string{"a", "b", "c", "d"} {
			s.put(sub(id), clientKey, threshold)
		}

		var seen []string
		for item := range s.all() {
			seen = append(seen, item.ClientID)
			s.remove(item.ClientID, clientKey)
		}
		slices.Sort(seen)
		assert.Equal(t, []string{"a", "b", "c", "d"}, seen)
		assert.True(t, s.empty())
	}
}
