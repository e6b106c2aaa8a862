// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/topictree/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/absmach/topictree"

var _ router.Counter = (*Metrics)(nil)

// Metrics holds OpenTelemetry metric instruments for the topic tree.
type Metrics struct {
	meter metric.Meter

	// Counters
	matchesTotal    metric.Int64Counter
	bootstrapLoaded metric.Int64Counter
	errorsTotal     metric.Int64Counter

	// UpDownCounters (Gauges)
	subscriptionsActive metric.Int64UpDownCounter

	// Histograms
	matchDuration    metric.Float64Histogram
	matchSubscribers metric.Int64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
// A nil provider uses the global one.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	m := &Metrics{
		meter: provider.Meter(meterName),
	}

	var err error

	m.matchesTotal, err = m.meter.Int64Counter(
		"topictree.matches.total",
		metric.WithDescription("Total number of topic match lookups"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matchesTotal counter: %w", err)
	}

	m.bootstrapLoaded, err = m.meter.Int64Counter(
		"topictree.bootstrap.subscriptions",
		metric.WithDescription("Subscriptions replayed from storage by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrapLoaded counter: %w", err)
	}

	m.errorsTotal, err = m.meter.Int64Counter(
		"topictree.errors.total",
		metric.WithDescription("Total errors by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errorsTotal counter: %w", err)
	}

	m.subscriptionsActive, err = m.meter.Int64UpDownCounter(
		"topictree.subscriptions.active",
		metric.WithDescription("Number of subscriptions in the topic tree"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriptionsActive gauge: %w", err)
	}

	m.matchDuration, err = m.meter.Float64Histogram(
		"topictree.match.duration.ms",
		metric.WithDescription("Topic match duration in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matchDuration histogram: %w", err)
	}

	m.matchSubscribers, err = m.meter.Int64Histogram(
		"topictree.match.subscribers",
		metric.WithDescription("Subscribers returned per topic match"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matchSubscribers histogram: %w", err)
	}

	return m, nil
}

// Add records a change of the live subscription count.
func (m *Metrics) Add(delta int64) {
	m.subscriptionsActive.Add(context.Background(), delta)
}

// RecordMatch records one topic lookup.
func (m *Metrics) RecordMatch(subscribers int, d time.Duration) {
	ctx := context.Background()
	m.matchesTotal.Add(ctx, 1)
	m.matchSubscribers.Record(ctx, int64(subscribers))
	m.matchDuration.Record(ctx, float64(d)/float64(time.Millisecond))
}

// RecordBootstrap records the outcome of a storage replay.
func (m *Metrics) RecordBootstrap(loaded, failed int) {
	ctx := context.Background()
	m.bootstrapLoaded.Add(ctx, int64(loaded), metric.WithAttributes(attribute.String("outcome", "loaded")))
	m.bootstrapLoaded.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
}

// RecordError records an error by type.
func (m *Metrics) RecordError(errorType string) {
	m.errorsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", errorType),
	))
}
