package audit

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/orderledger/server/internal/model"
	"github.com/orderledger/server/internal/port/outbound"
	"github.com/orderledger/server/internal/utils/logger"
	"github.com/orderledger/server/internal/utils/metrics"
	"github.com/orderledger/server/internal/utils/requestctx"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("orderledger/audit")

// Entry describes one committed mutation.
type Entry struct {
	Action     model.AuditAction
	EntityType string
	EntityID   string
	Before     any
	After      any
	Actor      *model.UserContext
}

// Sink accepts audit entries after the mutation they describe has committed.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// Recorder persists audit entries. A failed write is logged and counted, never returned.
type Recorder struct {
	db      outbound.AuditLogDatabasePort
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRecorder creates a new audit recorder.
func NewRecorder(db outbound.AuditLogDatabasePort, m *metrics.Metrics, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, metrics: m, logger: logger}
}

// Record writes entry. Request metadata is taken from ctx.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	ctx, span := tracer.Start(ctx, "audit.Record")
	defer span.End()

	before, beforeErr := marshal(entry.Before)
	after, afterErr := marshal(entry.After)
	if beforeErr != nil || afterErr != nil {
		r.logger.Warn("audit snapshot not serialisable",
			zap.String("action", string(entry.Action)),
			zap.String("entity_id", entry.EntityID),
			zap.NamedError("before_error", beforeErr),
			zap.NamedError("after_error", afterErr),
		)
	}

	log := &model.AuditLog{
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		Before:        before,
		After:         after,
		ChangedFields: ChangedFields(before, after),
		ActorUserID:   entry.Actor.UserIDPtr(),
		ActorRole:     entry.Actor.RoleOrSystem(),
		IP:            requestctx.ClientIP(ctx),
		UserAgent:     requestctx.UserAgent(ctx),
		RequestID:     requestctx.RequestID(ctx),
		CreatedAt:     time.Now(),
	}

	if err := r.db.Create(ctx, log); err != nil {
		r.metrics.RecordAuditFailure(string(entry.Action))
		r.logger.Error("failed to write audit log",
			append(logger.RequestFields(ctx),
				zap.String("action", string(entry.Action)),
				zap.String("entity_type", entry.EntityType),
				zap.String("entity_id", entry.EntityID),
				zap.Error(err),
			)...,
		)
	}
}

// List returns the audit trail of one entity, oldest first.
func (r *Recorder) List(ctx context.Context, entityType, entityID string) ([]*model.AuditLog, error) {
	return r.db.ListByEntity(ctx, entityType, entityID)
}

func marshal(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ChangedFields lists the top-level keys whose values differ between two JSON objects.
// Either side may be empty, in which case every key of the other side counts as changed.
func ChangedFields(before, after json.RawMessage) []string {
	b := objectOf(before)
	a := objectOf(after)
	if b == nil && a == nil {
		return nil
	}

	changed := make([]string, 0)
	for k, av := range a {
		if bv, ok := b[k]; !ok || !reflect.DeepEqual(av, bv) {
			changed = append(changed, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func objectOf(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
