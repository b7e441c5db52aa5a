package audit

import (
	"context"

	"record-reconciliation/pkg/database"
	errs "record-reconciliation/pkg/errors"
)

// SQLStore appends events to the reconciliation_audit_logs table.
//
// Expected schema:
//
//	CREATE TABLE reconciliation_audit_logs (
//	    id BIGINT AUTO_INCREMENT PRIMARY KEY,
//	    run_id VARCHAR(64) NOT NULL,
//	    event_type VARCHAR(64) NOT NULL,
//	    payload JSON NOT NULL,
//	    created_at DATETIME NOT NULL,
//	    KEY idx_run (run_id)
//	)
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Append(ctx context.Context, e Event) error {
	const op = "audit.SQLStore.Append"

	payload, err := e.MarshalData()
	if err != nil {
		return errs.NewDataAccess(op, errs.CodeConnectorQuery, "audit", "failed to marshal event", err)
	}

	ctx, cancel := s.db.WithWriteTimeout(ctx)
	defer cancel()

	query := `INSERT INTO reconciliation_audit_logs (run_id, event_type, payload, created_at)
	          VALUES (?, ?, ?, ?)`
	if _, err := s.db.Conn().ExecContext(ctx, query, e.RunID(), e.Type(), payload, e.Timestamp()); err != nil {
		return errs.NewDataAccess(op, errs.CodeConnectorQuery, "audit", "failed to insert audit event", err)
	}
	return nil
}
