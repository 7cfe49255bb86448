package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓库，只提供追加和查询
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Append 追加一条审计日志
func (r *AuditLogRepository) Append(ctx context.Context, log *entity.AuditLog) error {
	if log.ID == "" {
		log.ID = newID()
	}
	return classify(r.db.WithContext(ctx).Create(log).Error)
}

// FindInterventions 查询某门店被总部干预的记录，最新的在前；from/to 为零值时不限制
func (r *AuditLogRepository) FindInterventions(ctx context.Context, branchID string, from, to time.Time) ([]entity.AuditLog, error) {
	var items []entity.AuditLog

	query := r.db.WithContext(ctx).
		Where("target_branch_id = ? AND is_hq_intervention = ?", branchID, true)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}

	err := query.Order("created_at DESC").Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// FindByTarget 查询某对象的全部审计日志，按时间先后
func (r *AuditLogRepository) FindByTarget(ctx context.Context, targetType, targetID string) ([]entity.AuditLog, error) {
	var items []entity.AuditLog
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}
