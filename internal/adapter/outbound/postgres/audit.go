package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
)

// auditLogAdapter implements outbound.AuditLogDatabasePort.
type auditLogAdapter struct {
	db *gorm.DB
}

// NewAuditLogAdapter creates a new audit log adapter.
func NewAuditLogAdapter(db *gorm.DB) outbound.AuditLogDatabasePort {
	return &auditLogAdapter{db: db}
}

// Create writes outside any caller transaction; entries are recorded after commit.
func (a *auditLogAdapter) Create(ctx context.Context, entry *model.AuditLog) error {
	return a.db.WithContext(ctx).Create(entry).Error
}

func (a *auditLogAdapter) ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog
	err := a.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// Compile-time check
var _ outbound.AuditLogDatabasePort = (*auditLogAdapter)(nil)
