package outbound

import (
	"context"

	"github.com/orderledger/server/internal/model"
)

// AuditLogDatabasePort persists audit entries.
type AuditLogDatabasePort interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.AuditLog, error)
}
