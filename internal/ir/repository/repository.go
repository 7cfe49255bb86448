package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateNumber    = errors.New("duplicate requisition number")
	ErrVersionConflict    = errors.New("requisition version conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Repositories IR仓库集合
type Repositories struct {
	Requisition *RequisitionRepository
	AuditLog    *AuditLogRepository
	MasterData  *MasterDataRepository
}

// NewRepositories 创建IR仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Requisition: NewRequisitionRepository(db),
		AuditLog:    NewAuditLogRepository(db),
		MasterData:  NewMasterDataRepository(db),
	}
}

func newID() string {
	return uuid.New().String()[:32]
}

// classify 把gorm错误归类为仓库层错误
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateNumber
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}
