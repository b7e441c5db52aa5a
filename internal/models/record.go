package models

// Record is an order-irrelevant mapping from field name to a scalar or
// structured value, plus the source-assigned identifier. The core never
// mutates a record in place; all normalization produces derived values.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Field returns the named value and whether the record carries it.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// FieldNames returns the set of field names present on the record.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for n := range r.Fields {
		names = append(names, n)
	}
	return names
}
