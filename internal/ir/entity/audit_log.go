package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// AuditLog 审计/总部干预日志，只追加不修改
type AuditLog struct {
	ID string `json:"id" gorm:"primaryKey;size:32"`

	ActorID   string `json:"actor_id" gorm:"size:32;not null"`
	ActorRole string `json:"actor_role" gorm:"size:32;not null"`

	Action         string `json:"action" gorm:"size:50;not null"` // requisition.create / requisition.approve ...
	TargetType     string `json:"target_type" gorm:"size:50;not null;index:idx_ir_audit_target"`
	TargetID       string `json:"target_id" gorm:"size:32;not null;index:idx_ir_audit_target"`
	TargetBranchID string `json:"target_branch_id" gorm:"size:32;not null;index:idx_ir_audit_branch"`

	Before JSONB  `json:"before" gorm:"type:jsonb"`
	After  JSONB  `json:"after" gorm:"type:jsonb"`
	Reason string `json:"reason" gorm:"type:text"`

	SourceIP         string    `json:"source_ip" gorm:"size:64"`
	IsHQIntervention bool      `json:"is_hq_intervention" gorm:"default:false;index:idx_ir_audit_branch"`
	CreatedAt        time.Time `json:"created_at" gorm:"index:idx_ir_audit_branch"`
}

func (AuditLog) TableName() string {
	return "ir_audit_logs"
}

// 审计目标类型
const (
	AuditTargetRequisition = "requisition"
)
