package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"go.uber.org/zap"
)

// AuditStore 审计日志存储
type AuditStore interface {
	Append(ctx context.Context, log *entity.AuditLog) error
	FindInterventions(ctx context.Context, branchID string, from, to time.Time) ([]entity.AuditLog, error)
}

// AuditRecord 一次待记录的操作
type AuditRecord struct {
	Actor          Actor
	Action         string
	TargetType     string
	TargetID       string
	TargetBranchID string
	Before         interface{}
	After          interface{}
	Reason         string
}

// Recorder 审计/总部干预记录器
type Recorder struct {
	store  AuditStore
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(store AuditStore, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record 追加一条日志，只在存储不可用时失败
func (r *Recorder) Record(ctx context.Context, rec AuditRecord) (*entity.AuditLog, error) {
	if r.store == nil {
		return nil, ErrRepositoryNotConfigured
	}
	log := &entity.AuditLog{
		ActorID:          rec.Actor.ID,
		ActorRole:        string(rec.Actor.Role),
		Action:           rec.Action,
		TargetType:       rec.TargetType,
		TargetID:         rec.TargetID,
		TargetBranchID:   rec.TargetBranchID,
		Before:           toJSONB(rec.Before),
		After:            toJSONB(rec.After),
		Reason:           rec.Reason,
		SourceIP:         rec.Actor.SourceIP,
		IsHQIntervention: rec.Actor.IntervenesIn(rec.TargetBranchID),
		CreatedAt:        r.now(),
	}
	if err := r.store.Append(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// RecordBestEffort 记录失败只打日志，不影响业务流转
func (r *Recorder) RecordBestEffort(ctx context.Context, rec AuditRecord) *entity.AuditLog {
	log, err := r.Record(ctx, rec)
	if err != nil {
		r.logger.Error("Failed to write audit log",
			zap.String("action", rec.Action),
			zap.String("target_id", rec.TargetID),
			zap.String("actor_id", rec.Actor.ID),
			zap.Bool("hq_intervention", rec.Actor.IntervenesIn(rec.TargetBranchID)),
			zap.Error(err),
		)
		return nil
	}
	return log
}

// ListInterventions 某门店在时间范围内被总部干预的记录，最新的在前
func (r *Recorder) ListInterventions(ctx context.Context, branchID string, from, to time.Time) ([]entity.AuditLog, error) {
	if r.store == nil {
		return nil, ErrRepositoryNotConfigured
	}
	if branchID == "" {
		return nil, validationError("branch_id is required")
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, validationError("date range end before start")
	}
	if !from.IsZero() {
		from = from.UTC()
	}
	if !to.IsZero() {
		to = to.UTC()
	}
	return r.store.FindInterventions(ctx, branchID, from, to)
}

func toJSONB(v interface{}) entity.JSONB {
	if v == nil {
		return nil
	}
	if m, ok := v.(entity.JSONB); ok {
		return m
	}
	data, err := json.Marshal(v)
	if err != nil {
		return entity.JSONB{"error": err.Error()}
	}
	var out entity.JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		return entity.JSONB{"value": string(data)}
	}
	return out
}
