package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/bitfantasy/nimo-hq/internal/ir/repository"
	"github.com/shopspring/decimal"
)

// 错误分类，调用方用 errors.Is 判断
var (
	// ErrValidation 入参缺失或不合法，未做任何修改
	ErrValidation = errors.New("validation error")

	// ErrForbidden 操作人角色或门店无权执行该操作
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidQuantity 审批数量越界，整批不生效
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrConcurrentModification 并发流转中落败，调用方应重新读取后重试
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrSequenceExhausted 某门店当月单号用尽，不重试
	ErrSequenceExhausted = errors.New("requisition sequence exhausted")

	// ErrRepositoryNotConfigured 未注入仓库
	ErrRepositoryNotConfigured = errors.New("requisition repository not configured")

	ErrNotFound           = repository.ErrNotFound
	ErrStorageUnavailable = repository.ErrStorageUnavailable
)

// TransitionError 非法流转详情
type TransitionError struct {
	From   entity.RequisitionStatus
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s a requisition in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// QuantityError 审批数量越界详情
type QuantityError struct {
	ItemID    string
	Requested decimal.Decimal
	Approved  decimal.Decimal
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: item %s approved %s, must be between 0 and %s",
		e.ItemID, e.Approved.String(), e.Requested.String())
}

func (e *QuantityError) Unwrap() error {
	return ErrInvalidQuantity
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsRetryable 重新读取后重试可能成功
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError 调用方输入或时机问题
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidQuantity)
}
