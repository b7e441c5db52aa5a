package connector

import (
	"context"

	"googlemaps.github.io/maps"

	"record-reconciliation/internal/models"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/pkg/logging"
)

// AddressCanonicalizer rewrites free-form address fields to the formatted
// address Google's geocoder resolves them to, so two systems describing
// the same street in different shapes compare equal before any fuzzy
// matching runs. Optional; failures leave the original value untouched.
type AddressCanonicalizer struct {
	client *maps.Client
	log    *logging.ComponentLogger
}

func NewAddressCanonicalizer(apiKey string, log *logging.Logger) (*AddressCanonicalizer, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	ac := &AddressCanonicalizer{client: client}
	if log != nil {
		ac.log = log.WithComponent("geocode")
	}
	return ac, nil
}

// Canonicalize resolves one address; empty input and geocoder misses
// return the input unchanged.
func (a *AddressCanonicalizer) Canonicalize(ctx context.Context, address string) string {
	if address == "" {
		return address
	}
	results, err := a.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil || len(results) == 0 {
		if err != nil && a.log != nil {
			a.log.Warn("geocode failed, keeping original address",
				logging.String("error", err.Error()))
		}
		return address
	}
	return results[0].FormattedAddress
}

// EnrichField returns a copy of records with the named field replaced by
// its canonical form. The input records stay untouched, matching the
// core's no-in-place-mutation rule.
func (a *AddressCanonicalizer) EnrichField(ctx context.Context, records []models.Record, field string) []models.Record {
	out := make([]models.Record, len(records))
	for i, rec := range records {
		fields := make(map[string]any, len(rec.Fields))
		for k, v := range rec.Fields {
			fields[k] = v
		}
		if v, ok := fields[field]; ok {
			fields[field] = a.Canonicalize(ctx, normalize.Stringify(v))
		}
		out[i] = models.Record{ID: rec.ID, Fields: fields}
	}
	return out
}
