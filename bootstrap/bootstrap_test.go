// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/absmach/topictree/router"
	"github.com/absmach/topictree/storage"
	"github.com/absmach/topictree/storage/badger"
	"github.com/absmach/topictree/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recorder struct {
	loaded, failed int
}

func (r *recorder) RecordBootstrap(loaded, failed int) {
	r.loaded += loaded
	r.failed += failed
}

func seed(t *testing.T, store storage.SubscriptionStore) {
	t.Helper()

	id := uint32(9)
	subs := []*storage.Subscription{
		{ClientID: "c1", Filter: "sensor/+/temp", QoS: 1},
		{ClientID: "c1", Filter: "sensor/#", QoS: 2, SubscriptionID: &id},
		{ClientID: "c2", Filter: "sensor/a/temp", ShareName: "g", Options: storage.SubscribeOptions{NoLocal: true}},
		{ClientID: "c3", Filter: "#"},
		{ClientID: "c4", Filter: "alerts/critical"},
		{ClientID: "bad", Filter: "a/#/b"},
	}
	for _, sub := range subs {
		require.NoError(t, store.Add(sub))
	}
}

func TestPopulate(t *testing.T) {
	store := memory.NewSubscriptionStore()
	seed(t, store)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	rec := &recorder{}

	tree := router.New(router.DefaultConfig(), nil, nil)
	res, err := Populate(context.Background(), store, tree, Options{
		Workers:  4,
		Recorder: rec,
		Tracer:   tp.Tracer("test"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Loaded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 4, res.Groups, "sensor, #, alerts and a")
	assert.Equal(t, int64(5), tree.Count())
	assert.Equal(t, 5, rec.loaded)
	assert.Equal(t, 1, rec.failed)

	matches := tree.GetSubscribers("sensor/a/temp", false)
	require.Len(t, matches, 3)
	assert.Equal(t, "c1", matches[0].ClientID)
	assert.Equal(t, byte(2), matches[0].QoS)
	assert.Equal(t, []uint32{9}, matches[0].SubscriptionIDs)
	assert.Equal(t, "c2", matches[1].ClientID)
	assert.Equal(t, "sensor/a/temp", matches[1].TopicFilter)
	assert.True(t, matches[1].Flags.Has(router.FlagShared|router.FlagNoLocal))
	assert.Equal(t, "c3", matches[2].ClientID)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "bootstrap.Populate", spans[0].Name)
}

func TestPopulate_Badger(t *testing.T) {
	db, err := badger.New(badger.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer db.Close()

	for i := range 100 {
		sub := &storage.Subscription{ClientID: fmt.Sprintf("c%d", i), Filter: fmt.Sprintf("tenant%d/+/state", i%7)}
		require.NoError(t, db.Subscriptions().Add(sub))
	}

	tree := router.New(router.DefaultConfig(), nil, nil)
	res, err := Populate(context.Background(), db.Subscriptions(), tree, Options{Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Loaded)
	assert.Equal(t, 7, res.Groups)
	assert.Equal(t, int64(100), tree.Count())
}

func TestPopulate_Cancelled(t *testing.T) {
	store := memory.NewSubscriptionStore()
	seed(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree := router.New(router.DefaultConfig(), nil, nil)
	res, err := Populate(ctx, store, tree, Options{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Loaded)
	assert.Zero(t, tree.Count())
}

type failingStore struct {
	storage.SubscriptionStore
}

func (failingStore) ForEach(func(*storage.Subscription) error) error {
	return errors.New("disk on fire")
}

func TestPopulate_StoreError(t *testing.T) {
	tree := router.New(router.DefaultConfig(), nil, nil)
	_, err := Populate(context.Background(), failingStore{}, tree, Options{})
	assert.ErrorContains(t, err, "disk on fire")
}

func TestToTopic(t *testing.T) {
	id := uint32(3)
	topic, flags := ToTopic(&storage.Subscription{
		ClientID:       "c",
		Filter:         "a/b",
		QoS:            2,
		SubscriptionID: &id,
		Options:        storage.SubscribeOptions{NoLocal: true, RetainAsPublished: true},
	})

	assert.Equal(t, "a/b", topic.Filter)
	assert.Equal(t, byte(2), topic.QoS)
	assert.Equal(t, &id, topic.SubscriptionID)
	assert.True(t, flags.Has(router.FlagNoLocal|router.FlagRetainAsPublished))
	assert.False(t, flags.Has(router.FlagShared))
}
