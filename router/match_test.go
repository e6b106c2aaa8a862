// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/absmach/topictree/topics"
	"github.com/stretchr/testify/assert"
)

var levelAlphabet = []string{"", "a", "b", "c"}

func randomTopic(r *rand.Rand) string {
	n := 1 + r.IntN(4)
	levels := make([]string, n)
	for i := range levels {
		levels[i] = levelAlphabet[r.IntN(len(levelAlphabet))]
	}
	return strings.Join(levels, "/")
}

func randomFilter(r *rand.Rand) string {
	if r.IntN(20) == 0 {
		return "#"
	}
	n := 1 + r.IntN(4)
	levels := make([]string, n)
	for i := range levels {
		switch r.IntN(5) {
		case 0:
			levels[i] = "+"
		default:
			levels[i] = levelAlphabet[r.IntN(len(levelAlphabet))]
		}
	}
	if r.IntN(4) == 0 {
		levels = append(levels, "#")
	}
	return strings.Join(levels, "/")
}

// The tree must agree with the reference matcher for any filter set.
func TestTopicTree_MatchesReference(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for round := range 20 {
		tree := New(Config{ChildIndexThreshold: 1 + round%3, SubscriberIndexThreshold: 1 + round%2}, nil, nil)

		filters := make(map[string]string)
		for i := range 60 {
			clientID := fmt.Sprintf("c%d", i)
			filter := randomFilter(r)
			filters[clientID] = filter
			add(t, tree, clientID, filter, 0)
		}

		for range 50 {
			topic := randomTopic(r)

			var want []string
			for clientID, filter := range filters {
				if topics.Match(filter, topic) {
					want = append(want, clientID)
				}
			}
			slices.Sort(want)

			got := tree.GetSubscribersForTopic(topic, AllSubscriptions, false)
			assert.Equal(t, want, got, "topic %q", topic)
		}
	}
}

func TestTopicTree_ConcurrentSubscribeMatch(t *testing.T) {
	tree, counter := newTestTree(t)

	const (
		writers = 8
		perW    = 200
	)

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perW {
				clientID := fmt.Sprintf("w%d-c%d", w, i)
				filter := fmt.Sprintf("sensor/room%d/+", i%10)
				_, err := tree.AddTopic(clientID, Topic{Filter: filter, QoS: 1}, 0, "")
				assert.NoError(t, err)
			}
		}()
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = tree.GetSubscribers("sensor/room1/temperature", false)
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	readers.Wait()

	assert.Equal(t, int64(writers*perW), tree.Count())
	assert.Equal(t, int64(writers*perW), counter.v.Load())
	assert.Len(t, tree.GetSubscribers("sensor/room1/temperature", false), writers*perW/10)

	wg = sync.WaitGroup{}
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perW {
				clientID := fmt.Sprintf("w%d-c%d", w, i)
				filter := fmt.Sprintf("sensor/room%d/+", i%10)
				assert.NoError(t, tree.RemoveSubscriber(clientID, filter, ""))
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, tree.Count())
	assert.Zero(t, tree.Stats().Nodes)
}

func TestTopicTree_ConcurrentRootWildcards(t *testing.T) {
	tree, _ := newTestTree(t)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tree.AddTopic(fmt.Sprintf("c%d", i), Topic{Filter: "#"}, 0, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, tree.GetSubscribers("any/topic", false), 50)
	assert.Equal(t, 50, tree.Stats().RootWildcards)
}
