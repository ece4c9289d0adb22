package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AuditAction names a committed mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionOrderCreated         AuditAction = "order.created"
	AuditActionOrderStatusChanged   AuditAction = "order.status_changed"
	AuditActionOrderPaymentAdded    AuditAction = "order.payment_added"
	AuditActionStockDocumentCreated AuditAction = "stock_document.created"
	AuditActionStockDocumentPosted  AuditAction = "stock_document.posted"
	AuditActionStockDocumentVoided  AuditAction = "stock_document.voided"
	AuditActionWarehouseCreated     AuditAction = "warehouse.created"
)

// AuditLog is a durable record of who changed what.
type AuditLog struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action        AuditAction     `json:"action" gorm:"not null;index"`
	EntityType    string          `json:"entity_type" gorm:"not null;index:idx_audit_entity"`
	EntityID      string          `json:"entity_id" gorm:"not null;index:idx_audit_entity"`
	Before        json.RawMessage `json:"before,omitempty" gorm:"type:jsonb"`
	After         json.RawMessage `json:"after,omitempty" gorm:"type:jsonb"`
	ChangedFields pq.StringArray  `json:"changed_fields,omitempty" gorm:"type:text[]"`
	ActorUserID   *uuid.UUID      `json:"actor_user_id,omitempty" gorm:"type:uuid"`
	ActorRole     string          `json:"actor_role,omitempty"`
	IP            string          `json:"ip,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName returns the database table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
