package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"record-reconciliation/internal/models"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/pkg/config"
	"record-reconciliation/pkg/database"
	errs "record-reconciliation/pkg/errors"
)

// SQLConnector reads records from one MySQL table. Every column becomes a
// record field; the configured id column becomes the record identifier.
type SQLConnector struct {
	name    string
	dsn     string
	table   string
	idField string
	cfg     *config.Config
	db      *database.DB
}

func NewSQLConnector(name, dsn, table, idField string, cfg *config.Config) *SQLConnector {
	if idField == "" {
		idField = "id"
	}
	return &SQLConnector{name: name, dsn: dsn, table: table, idField: idField, cfg: cfg}
}

func (c *SQLConnector) Name() string { return c.name }

func (c *SQLConnector) Connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}
	db, err := database.New(c.dsn, c.cfg)
	if err != nil {
		return errs.NewDataAccess("connector.SQLConnector.Connect", errs.CodeConnectorConnect,
			c.name, "failed to open database", err)
	}
	c.db = db
	return nil
}

func (c *SQLConnector) Disconnect(context.Context) error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Query selects all rows matching the filter (exact equality per key).
// Filter keys are validated against the table's columns to keep the query
// parameterized end to end.
func (c *SQLConnector) Query(ctx context.Context, filter Filter) ([]models.Record, error) {
	const op = "connector.SQLConnector.Query"
	if c.db == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := c.db.WithReadTimeout(ctx)
	defer cancel()

	query := "SELECT * FROM " + quoteIdent(c.table)
	var args []any
	if len(filter) > 0 {
		var conds []string
		for k, v := range filter {
			if !validIdent(k) {
				return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name,
					fmt.Sprintf("invalid filter column %q", k), nil)
			}
			conds = append(conds, quoteIdent(k)+" = ?")
			args = append(args, v)
		}
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := c.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name, "query failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name, "failed to read columns", err)
	}

	var records []models.Record
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name, "failed to scan row", err)
		}

		fields := make(map[string]any, len(cols))
		for i, col := range cols {
			fields[col] = sqlValue(raw[i])
		}
		rec := models.Record{Fields: fields}
		if id, ok := fields[c.idField]; ok {
			rec.ID = normalize.Stringify(id)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDataAccess(op, errs.CodeConnectorQuery, c.name, "row iteration failed", err)
	}
	return records, nil
}

// sqlValue converts driver values into the record value kinds the core
// supports; []byte columns (MySQL text) become strings.
func sqlValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case sql.RawBytes:
		return string(x)
	default:
		return v
	}
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return false
	}
	return true
}

func quoteIdent(s string) string { return "`" + s + "`" }
