// Package connector defines the capability the reconciliation core uses
// to obtain record sets, and the adapters that implement it. Connector
// identity, type and connection state stay opaque to the core; it only
// sees already-resolved records.
package connector

import (
	"context"
	"sync"

	"record-reconciliation/internal/models"
	errs "record-reconciliation/pkg/errors"
)

// Filter narrows a connector query. Keys are connector-specific (column
// names for SQL, query parameters for REST); values are matched exactly.
type Filter map[string]string

// Connector supplies records from one external system.
type Connector interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Query(ctx context.Context, filter Filter) ([]models.Record, error)
}

// Registry holds the configured connectors. Explicitly constructed and
// passed by reference; there is deliberately no package-level instance.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Name()] = c
}

// Get returns the named connector or a DataAccessError when none is
// registered under that name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[name]
	if !ok {
		return nil, &errs.DataAccessError{
			Op:        "connector.Registry.Get",
			Code:      errs.CodeConnectorNotFound,
			Connector: name,
			Msg:       "no connector registered under this name",
			Hint:      "register the connector at startup or fix the name in the request",
		}
	}
	return c, nil
}

// Names lists the registered connector names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connectors))
	for n := range r.connectors {
		out = append(out, n)
	}
	return out
}

// CloseAll disconnects every connector, keeping the first error.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var first error
	for _, c := range r.connectors {
		if err := c.Disconnect(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
