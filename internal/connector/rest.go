package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"record-reconciliation/internal/models"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/pkg/circuit"
	errs "record-reconciliation/pkg/errors"
	"record-reconciliation/pkg/logging"
)

// RESTConnector reads records from a JSON web API returning an array of
// objects. Calls go through a circuit breaker so a flapping upstream
// cannot stall every reconciliation run behind timeouts.
type RESTConnector struct {
	name     string
	endpoint string
	idField  string
	client   *http.Client
	breaker  *circuit.Breaker
}

func NewRESTConnector(name, endpoint, idField string, log *logging.Logger) *RESTConnector {
	if idField == "" {
		idField = "id"
	}
	return &RESTConnector{
		name:     name,
		endpoint: endpoint,
		idField:  idField,
		client:   &http.Client{Timeout: 30 * time.Second},
		breaker: circuit.New(circuit.Config{
			Name:              name,
			OperationTimeout:  30 * time.Second,
			OpenFor:           30 * time.Second,
			MaxConsecFailures: 5,
			WindowSize:        20,
			FailureRate:       0.5,
		}, log),
	}
}

func (c *RESTConnector) Name() string { return c.name }

// Connect probes the endpoint; web APIs are otherwise connectionless.
func (c *RESTConnector) Connect(ctx context.Context) error {
	if _, err := url.Parse(c.endpoint); err != nil {
		return errs.NewDataAccess("connector.RESTConnector.Connect", errs.CodeConnectorConnect,
			c.name, "invalid endpoint URL", err)
	}
	return nil
}

func (c *RESTConnector) Disconnect(context.Context) error { return nil }

func (c *RESTConnector) Query(ctx context.Context, filter Filter) ([]models.Record, error) {
	const op = "connector.RESTConnector.Query"

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name, "invalid endpoint URL", err)
	}
	q := u.Query()
	for k, v := range filter {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var payload []map[string]any
	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name, "request failed", err)
	}

	records := make([]models.Record, 0, len(payload))
	for _, fields := range payload {
		rec := models.Record{Fields: fields}
		if id, ok := fields[c.idField]; ok {
			rec.ID = normalize.Stringify(id)
		}
		records = append(records, rec)
	}
	return records, nil
}
