package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsProvider manages OpenTelemetry metrics exported in Prometheus format
type MetricsProvider struct {
	enabled       bool
	registry      *prometheus.Registry
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	eventsCreatedCounter    metric.Int64Counter
	betsPlacedCounter       metric.Int64Counter
	stakeVolumeCounter      metric.Int64Counter
	matchesFinalizedCounter metric.Int64Counter
	claimsPaidCounter       metric.Int64Counter
	payoutVolumeCounter     metric.Int64Counter
	mutationsFailedCounter  metric.Int64Counter
	mutationDurationHist    metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(enabled bool) *MetricsProvider {
	return &MetricsProvider{
		enabled:  enabled,
		registry: prometheus.NewRegistry(),
	}
}

// Initialize sets up the meter provider and its Prometheus exporter
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}
	if !mp.enabled {
		log.Info("Metrics disabled")
		mp.initialized = true
		return nil
	}

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(mp.registry),
		otelprom.WithoutUnits(),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	mp.meter = mp.meterProvider.Meter(MetricPrefix)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.eventsCreatedCounter, EventsCreatedTotal, "Total number of sport events registered"},
		{&mp.betsPlacedCounter, BetsPlacedTotal, "Total number of bets placed"},
		{&mp.stakeVolumeCounter, StakeVolumeTotal, "Total value staked"},
		{&mp.matchesFinalizedCounter, MatchesFinalizedTotal, "Total number of finalized matches"},
		{&mp.claimsPaidCounter, ClaimsPaidTotal, "Total number of winning claims paid"},
		{&mp.payoutVolumeCounter, PayoutVolumeTotal, "Total value paid out"},
		{&mp.mutationsFailedCounter, MutationsFailedTotal, "Total number of rejected or failed mutations"},
	}
	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	mp.mutationDurationHist, err = mp.meter.Float64Histogram(
		MutationDuration,
		metric.WithDescription("Duration of ledger mutations including the wait for the writer lock, in seconds"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create mutation duration histogram: %w", err)
	}
	return nil
}

// Handler serves the Prometheus scrape endpoint
func (mp *MetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordEventCreated records a registered sport event
func (mp *MetricsProvider) RecordEventCreated() {
	if !mp.isEnabled() {
		return
	}
	mp.eventsCreatedCounter.Add(context.Background(), 1)
}

// RecordBetPlaced records a placed bet and its stake
func (mp *MetricsProvider) RecordBetPlaced(amount int64) {
	if !mp.isEnabled() {
		return
	}
	mp.betsPlacedCounter.Add(context.Background(), 1)
	mp.stakeVolumeCounter.Add(context.Background(), amount)
}

// RecordMatchFinalized records a finalization by source
func (mp *MetricsProvider) RecordMatchFinalized(source string) {
	if !mp.isEnabled() {
		return
	}
	mp.matchesFinalizedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelSource, source)),
	)
}

// RecordClaimPaid records a paid claim and its payout
func (mp *MetricsProvider) RecordClaimPaid(payout int64) {
	if !mp.isEnabled() {
		return
	}
	mp.claimsPaidCounter.Add(context.Background(), 1)
	mp.payoutVolumeCounter.Add(context.Background(), payout)
}

// RecordMutationFailed records a mutation that was rejected or rolled back
func (mp *MetricsProvider) RecordMutationFailed(operation, reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.mutationsFailedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOperation, operation),
			attribute.String(LabelReason, reason),
		),
	)
}

// MeasureMutation returns a function that records the mutation duration
// Usage:
//
//	defer mp.MeasureMutation("place_bet")()
func (mp *MetricsProvider) MeasureMutation(operation string) func() {
	start := time.Now()
	return func() {
		if !mp.isEnabled() {
			return
		}
		mp.mutationDurationHist.Record(context.Background(), time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String(LabelOperation, operation)),
		)
	}
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
