// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap replays persisted subscriptions into a topic tree.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/absmach/topictree/router"
	"github.com/absmach/topictree/storage"
	"github.com/absmach/topictree/topics"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/absmach/topictree/bootstrap"

// Recorder receives the outcome of a replay.
type Recorder interface {
	RecordBootstrap(loaded, failed int)
}

// Options configures Populate.
type Options struct {
	Workers  int
	Logger   *slog.Logger
	Recorder Recorder
	Tracer   trace.Tracer
}

// Result summarizes a replay.
type Result struct {
	Loaded int
	Failed int
	Groups int
}

// Populate adds every subscription of store to tree. Subscriptions are
// grouped by the first level of their filter and each group is replayed by a
// single worker, so a worker keeps writing to the same lock stripe.
//
// Invalid subscriptions are logged and counted as failed. A cancelled ctx
// stops the replay and returns ctx.Err() with the partial result.
func Populate(ctx context.Context, store storage.SubscriptionStore, tree *router.TopicTree, opts Options) (Result, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	ctx, span := opts.Tracer.Start(ctx, "bootstrap.Populate")
	defer span.End()

	groups := make(map[string][]*storage.Subscription)
	err := store.ForEach(func(sub *storage.Subscription) error {
		key := topics.FirstSegmentKey(sub.Filter)
		groups[key] = append(groups[key], sub)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read subscriptions")
		return Result{}, fmt.Errorf("failed to read subscriptions: %w", err)
	}

	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(p any) {
		opts.Logger.Error("Bootstrap worker panicked", slog.Any("panic", p))
	}))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg             sync.WaitGroup
		loaded, failed atomic.Int64
	)
	for _, group := range groups {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			for _, sub := range group {
				if ctx.Err() != nil {
					return
				}
				if err := add(tree, sub); err != nil {
					failed.Add(1)
					opts.Logger.Warn("Skipping persisted subscription",
						slog.String("client_id", sub.ClientID),
						slog.String("topic", sub.Filter),
						slog.String("error", err.Error()))
					continue
				}
				loaded.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return Result{}, fmt.Errorf("failed to submit bootstrap task: %w", err)
		}
	}
	wg.Wait()

	res := Result{
		Loaded: int(loaded.Load()),
		Failed: int(failed.Load()),
		Groups: len(groups),
	}
	if opts.Recorder != nil {
		opts.Recorder.RecordBootstrap(res.Loaded, res.Failed)
	}
	span.SetAttributes(
		attribute.Int("bootstrap.loaded", res.Loaded),
		attribute.Int("bootstrap.failed", res.Failed),
		attribute.Int("bootstrap.groups", res.Groups),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return res, err
	}

	opts.Logger.Info("Topic tree populated from storage",
		slog.Int("loaded", res.Loaded),
		slog.Int("failed", res.Failed),
		slog.Int("groups", res.Groups))
	return res, nil
}

func add(tree *router.TopicTree, sub *storage.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := topics.ValidateTopicFilter(sub.Filter); err != nil {
		return err
	}

	topic, flags := ToTopic(sub)
	_, err := tree.AddTopic(sub.ClientID, topic, flags, sub.ShareName)
	return err
}

// ToTopic converts a stored subscription into tree arguments.
func ToTopic(sub *storage.Subscription) (router.Topic, router.Flags) {
	var flags router.Flags
	if sub.Options.NoLocal {
		flags |= router.FlagNoLocal
	}
	if sub.Options.RetainAsPublished {
		flags |= router.FlagRetainAsPublished
	}
	return router.Topic{
		Filter:         sub.Filter,
		QoS:            sub.QoS,
		SubscriptionID: sub.SubscriptionID,
	}, flags
}
