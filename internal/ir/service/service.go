package service

import (
	"github.com/bitfantasy/nimo-hq/internal/ir/repository"
	"github.com/bitfantasy/nimo-hq/internal/shared/lock"
	"go.uber.org/zap"
)

// Options 服务参数
type Options struct {
	MaxNumberAttempts int
}

// Services IR服务集合
type Services struct {
	Requisition *RequisitionService
	Recorder    *Recorder
	Sequence    *SequenceGenerator
}

// NewServices 创建IR服务集合
func NewServices(repos *repository.Repositories, locker lock.KeyLocker, opts Options, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := NewRecorder(repos.AuditLog, logger.Named("audit"))
	sequence := NewSequenceGenerator(repos.Requisition, locker, opts.MaxNumberAttempts)
	return &Services{
		Requisition: NewRequisitionService(repos.Requisition, repos.MasterData, sequence, recorder, logger.Named("requisition")),
		Recorder:    recorder,
		Sequence:    sequence,
	}
}
