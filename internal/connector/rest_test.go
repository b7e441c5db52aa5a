package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	errs "record-reconciliation/pkg/errors"
)

func TestRESTConnector_Query(t *testing.T) {
	var gotFilter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("country")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Acme GmbH", "country": "AT"},
			{"id": 2, "name": "Globex AG", "country": "AT"},
		})
	}))
	defer srv.Close()

	c := NewRESTConnector("crm", srv.URL, "id", nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := c.Query(context.Background(), Filter{"country": "AT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilter != "AT" {
		t.Fatalf("filter not forwarded, got %q", gotFilter)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected records: %+v", records)
	}
	// JSON numbers arrive as float64; the id still stringifies cleanly.
	if records[0].ID != "1" {
		t.Fatalf("unexpected record id: %q", records[0].ID)
	}
	if v, _ := records[0].Field("name"); v != "Acme GmbH" {
		t.Fatalf("unexpected field value: %v", v)
	}
}

func TestRESTConnector_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRESTConnector("crm", srv.URL, "id", nil)
	_, err := c.Query(context.Background(), nil)
	if err == nil || !errs.Is(err, errs.ErrDataAccess) {
		t.Fatalf("expected a DataAccessError, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	c := NewRESTConnector("crm", "http://localhost", "id", nil)
	reg.Register(c)

	got, err := reg.Get("crm")
	if err != nil || got != Connector(c) {
		t.Fatalf("unexpected lookup: %v %v", got, err)
	}

	_, err = reg.Get("erp")
	if err == nil || !errs.Is(err, errs.ErrDataAccess) {
		t.Fatalf("expected a DataAccessError for an unknown connector, got %v", err)
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "crm" {
		t.Fatalf("unexpected names: %v", names)
	}
}
