package observability

// Metric name prefixes
const (
	MetricPrefix = "betledger"
)

// Metric names
const (
	// Ledger metrics
	EventsCreatedTotal    = MetricPrefix + "_events_created"
	BetsPlacedTotal       = MetricPrefix + "_bets_placed"
	StakeVolumeTotal      = MetricPrefix + "_stake_volume"
	MatchesFinalizedTotal = MetricPrefix + "_matches_finalized"
	ClaimsPaidTotal       = MetricPrefix + "_claims_paid"
	PayoutVolumeTotal     = MetricPrefix + "_payout_volume"
	MutationsFailedTotal  = MetricPrefix + "_mutations_failed"

	// Sequencer metrics
	MutationDuration = MetricPrefix + "_mutation_duration"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelReason    = "reason"
	LabelSource    = "source"
)

// Finalization sources
const (
	SourceAttested = "attested"
	SourceManual   = "manual"
)
