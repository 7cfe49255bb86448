package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/repository"
	"github.com/bitfantasy/nimo-hq/internal/shared/lock"
)

const maxSequence = 9999

// NumberSource 查询某前缀下已用的最大单号
type NumberSource interface {
	MaxNumber(ctx context.Context, prefix string) (string, error)
}

// SequenceGenerator 请购单号生成器 IR-{门店编码}-{YYMM}-{4位}
type SequenceGenerator struct {
	source      NumberSource
	locker      lock.KeyLocker
	maxAttempts int
}

func NewSequenceGenerator(source NumberSource, locker lock.KeyLocker, maxAttempts int) *SequenceGenerator {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &SequenceGenerator{source: source, locker: locker, maxAttempts: maxAttempts}
}

// NumberPrefix IR-BJ01-2610-
func NumberPrefix(branchCode string, at time.Time) string {
	return fmt.Sprintf("IR-%s-%s-", branchCode, at.Format("0601"))
}

// FormatNumber 拼出完整单号
func FormatNumber(branchCode string, at time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix(branchCode, at), seq)
}

// parseSequence 取出单号末尾的序号，前缀后必须恰好是4位数字
func parseSequence(number, prefix string) (int, error) {
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("number %s does not match prefix %s", number, prefix)
	}
	digits := strings.TrimPrefix(number, prefix)
	if len(digits) != 4 {
		return 0, fmt.Errorf("parse sequence of %s: want 4 digits after %s", number, prefix)
	}
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("parse sequence of %s: non-digit %q", number, ch)
		}
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("parse sequence of %s: %w", number, err)
	}
	return seq, nil
}

// Next 计算下一个单号，调用方需持有该前缀的锁
func (g *SequenceGenerator) Next(ctx context.Context, branchCode string, at time.Time) (string, error) {
	prefix := NumberPrefix(branchCode, at)
	maxNumber, err := g.source.MaxNumber(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := 0
	if maxNumber != "" {
		if seq, err = parseSequence(maxNumber, prefix); err != nil {
			return "", err
		}
	}
	if seq >= maxSequence {
		return "", fmt.Errorf("%w: %s", ErrSequenceExhausted, strings.TrimSuffix(prefix, "-"))
	}
	return FormatNumber(branchCode, at, seq+1), nil
}

// WithNumber 持锁分配单号并执行写入。写入因单号冲突失败时（其它实例未走同一把锁）重新分配。
func (g *SequenceGenerator) WithNumber(ctx context.Context, branchCode string, at time.Time, write func(number string) error) error {
	if branchCode == "" {
		return validationError("branch code is required for numbering")
	}
	key := strings.TrimSuffix(NumberPrefix(branchCode, at), "-")
	unlock, err := g.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("lock sequence %s: %w", key, err)
	}
	defer unlock()

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		number, err := g.Next(ctx, branchCode, at)
		if err != nil {
			return err
		}
		err = write(number)
		if errors.Is(err, repository.ErrDuplicateNumber) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: could not allocate a number for %s after %d attempts", ErrConcurrentModification, key, g.maxAttempts)
}
