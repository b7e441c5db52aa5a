package trace

import (
	"context"
	"testing"
)

func TestNew_UniqueIDs(t *testing.T) {
	a := New("reconcile_records")
	b := New("reconcile_records")
	if a.TraceID == "" || a.TraceID == b.TraceID {
		t.Fatalf("expected distinct non-empty trace ids: %q vs %q", a.TraceID, b.TraceID)
	}
	if a.Tool != "reconcile_records" {
		t.Fatalf("unexpected tool: %+v", a)
	}
}

func TestIntoFrom(t *testing.T) {
	tc := New("reconcile_records")
	ctx := Into(context.Background(), tc)

	got, ok := From(ctx)
	if !ok || got.TraceID != tc.TraceID {
		t.Fatalf("unexpected round trip: %+v %v", got, ok)
	}

	if _, ok := From(context.Background()); ok {
		t.Fatalf("bare context must carry no trace")
	}
}

func TestEnsure(t *testing.T) {
	ctx, tc := Ensure(context.Background(), "reconcile_records")
	if tc.TraceID == "" {
		t.Fatalf("expected a minted trace id")
	}
	// A second Ensure keeps the existing context.
	_, tc2 := Ensure(ctx, "other_tool")
	if tc2.TraceID != tc.TraceID || tc2.Tool != "reconcile_records" {
		t.Fatalf("expected the existing trace to win: %+v", tc2)
	}
}

func TestMasked(t *testing.T) {
	tc := Context{MaskedFields: []string{"vat_id"}}
	if !tc.Masked("vat_id") {
		t.Fatalf("expected vat_id masked")
	}
	if tc.Masked("name") {
		t.Fatalf("name must not be masked")
	}
}
