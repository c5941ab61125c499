package postgres

import (
	"context"
	"fmt"

	"handle-ledger/internal/core/domain"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	db DBTX
}

// NewAuditRepo creates a PostgreSQL-backed AuditRepo.
func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, principal_id, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.PrincipalID, string(log.Action), log.ResourceType,
		log.ResourceID, nullIfEmpty(log.Details), log.IPAddress, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// nullIfEmpty stores an empty details string as SQL NULL; "" is not valid JSONB.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
