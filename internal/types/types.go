package types

import (
	"time"
)

// Status is the lifecycle state of a dedupe job.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions follow this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ComparatorKind selects the field-level similarity function for a mapped column.
type ComparatorKind string

const (
	CompareExact   ComparatorKind = "exact"
	CompareFuzzy   ComparatorKind = "fuzzy"
	CompareNumeric ComparatorKind = "numeric"
	CompareNone    ComparatorKind = "none"
)

// DataSource tags where the record set came from; carried through for reporting only.
type DataSource string

const (
	SourceFile     DataSource = "file"
	SourceDatabase DataSource = "database"
)

// MappedColumn binds a source column to a comparator kind and weight.
// Weights need not sum to 1; composite scores are normalized by the total
// weight actually evaluated.
type MappedColumn struct {
	SourceColumn string         `json:"source_column"`
	Kind         ComparatorKind `json:"comparator"`
	Weight       float64        `json:"weight"`
}

// IsMatchField reports whether the column participates in scoring.
func (c MappedColumn) IsMatchField() bool {
	return c.Kind != CompareNone && c.Kind != "" && c.Weight > 0
}

// DedupeConfig configures one matching run.
type DedupeConfig struct {
	// Threshold is the composite score at or above which a pair is matched.
	Threshold       float64  `json:"threshold"`
	BlockingColumns []string `json:"blocking_columns,omitempty"`
	// Optimize enables normalized-prefix blocking keys for high-cardinality
	// fields such as postcodes. This trades recall for throughput.
	Optimize   bool       `json:"optimize"`
	DataSource DataSource `json:"data_source,omitempty"`

	// NeutralScore is assigned to a field when either side is null or the
	// value cannot be compared. Zero means the default of 0.5.
	NeutralScore float64 `json:"neutral_score,omitempty"`
	// BlockPrefixLen is the key prefix length used when Optimize is set.
	// Zero means the default of 3.
	BlockPrefixLen int `json:"block_prefix_len,omitempty"`
	// NumericTolerance is the |a-b| distance at which a numeric field scores 0.
	// Zero means the default of 1.
	NumericTolerance float64 `json:"numeric_tolerance,omitempty"`
}

const (
	DefaultNeutralScore     = 0.5
	DefaultBlockPrefixLen   = 3
	DefaultNumericTolerance = 1.0
)

// Neutral returns the configured neutral score or its default.
func (c DedupeConfig) Neutral() float64 {
	if c.NeutralScore > 0 {
		return c.NeutralScore
	}
	return DefaultNeutralScore
}

// PrefixLen returns the configured blocking prefix length or its default.
func (c DedupeConfig) PrefixLen() int {
	if c.BlockPrefixLen > 0 {
		return c.BlockPrefixLen
	}
	return DefaultBlockPrefixLen
}

// Tolerance returns the configured numeric tolerance or its default.
func (c DedupeConfig) Tolerance() float64 {
	if c.NumericTolerance > 0 {
		return c.NumericTolerance
	}
	return DefaultNumericTolerance
}

// CandidatePair is an unordered record pair stored with A < B so each pair
// keys identically regardless of which block produced it.
type CandidatePair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// NewCandidatePair orders the two indices.
func NewCandidatePair(i, j int) CandidatePair {
	if j < i {
		i, j = j, i
	}
	return CandidatePair{A: i, B: j}
}

// ScoredPair is a candidate pair with its composite score and per-field breakdown.
type ScoredPair struct {
	Pair        CandidatePair      `json:"pair"`
	Composite   float64            `json:"composite"`
	FieldScores map[string]float64 `json:"field_scores,omitempty"`
}

// Matched reports whether the pair meets the threshold. The boundary is inclusive.
func (p ScoredPair) Matched(threshold float64) bool {
	return p.Composite >= threshold
}

// Cluster is a maximal set of records transitively linked by matched pairs.
type Cluster struct {
	ID        int     `json:"id"`
	Members   []int   `json:"members"` // sorted ascending
	Canonical int     `json:"canonical"`
	MinScore  float64 `json:"min_score"`
	AvgScore  float64 `json:"avg_score"`
}

// Size returns the number of member records.
func (c Cluster) Size() int { return len(c.Members) }

// Progress is one immutable snapshot of a job's state. Result is populated
// only on a terminal completed snapshot.
type Progress struct {
	Status  Status  `json:"status"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
	Error   string  `json:"error,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// FlaggedRow annotates one original record with its cluster membership.
type FlaggedRow struct {
	Index     int    `json:"index"`
	Record    Record `json:"record"`
	ClusterID int    `json:"cluster_id"`
	// Duplicate is false only for the canonical record of the cluster.
	Duplicate bool `json:"duplicate"`
}

// Result is the final output of one dedupe run.
type Result struct {
	JobID            string       `json:"job_id,omitempty"`
	OriginalRows     int          `json:"original_rows"`
	UniqueRows       int          `json:"unique_rows"`
	DuplicateRows    int          `json:"duplicate_rows"`
	Clusters         []Cluster    `json:"clusters"`
	ProcessedData    []Record     `json:"processed_data"`
	FlaggedData      []FlaggedRow `json:"flagged_data"`
	ProcessingTimeMs int64        `json:"processing_time_ms"`
	StartTime        time.Time    `json:"start_time"`
}

// DedupeRequest is the full input for one run, as submitted to a matching
// service or persisted for a worker to pick up.
type DedupeRequest struct {
	JobID   string         `json:"job_id"`
	Records []Record       `json:"records"`
	Columns []MappedColumn `json:"columns"`
	Config  DedupeConfig   `json:"config"`
}

// DelegatedParams is the workflow input for a delegated run. The record set
// travels by URI rather than inline so large payloads stay out of the
// workflow history.
type DelegatedParams struct {
	JobID      string `json:"job_id"`
	DatasetURI string `json:"dataset_uri"`
}

// CancelAck is the external service's response to a cancel request. Accepted
// does not mean the job stopped; callers keep polling until a terminal status.
type CancelAck struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}
