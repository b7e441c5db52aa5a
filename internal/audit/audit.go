// Package audit records run-level reconciliation events for replay and
// operator review. Keep payloads small and JSON-friendly; the report
// itself is not duplicated here.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"record-reconciliation/internal/models"
)

// Event is the base interface for reconciliation audit events.
type Event interface {
	Type() string
	RunID() string
	Timestamp() time.Time
	MarshalData() ([]byte, error)
}

const (
	TypeRunStarted   = "reconciliation.run.started"
	TypeRunCompleted = "reconciliation.run.completed"
	TypeRunFailed    = "reconciliation.run.failed"
)

// Base contains common event metadata.
type Base struct {
	Ts      time.Time `json:"ts"`
	Run     string    `json:"run_id"`
	TraceID string    `json:"trace_id,omitempty"`
}

func (b Base) Timestamp() time.Time { return b.Ts }
func (b Base) RunID() string        { return b.Run }

// RunStarted is emitted when a reconciliation run begins.
type RunStarted struct {
	Base
	LeftConnector  string `json:"left_connector,omitempty"`
	RightConnector string `json:"right_connector,omitempty"`
	RuleCount      int    `json:"rule_count"`
}

func (e RunStarted) Type() string                 { return TypeRunStarted }
func (e RunStarted) MarshalData() ([]byte, error) { return json.Marshal(e) }

// RunCompleted carries the summary counts of a finished run.
type RunCompleted struct {
	Base
	Summary    models.Summary `json:"summary"`
	DurationMs int64          `json:"duration_ms"`
}

func (e RunCompleted) Type() string                 { return TypeRunCompleted }
func (e RunCompleted) MarshalData() ([]byte, error) { return json.Marshal(e) }

// RunFailed records the actionable message of an aborted run.
type RunFailed struct {
	Base
	Reason string `json:"reason"`
}

func (e RunFailed) Type() string                 { return TypeRunFailed }
func (e RunFailed) MarshalData() ([]byte, error) { return json.Marshal(e) }

// Store is the audit sink. Append must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, e Event) error
}

// NopStore discards events; the default when no sink is configured.
type NopStore struct{}

func (NopStore) Append(context.Context, Event) error { return nil }
