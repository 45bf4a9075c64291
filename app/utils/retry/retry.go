// Package retry 实现固定次数、固定间隔的重试。
//
// 是否重试由 Policy.Next 决定，它是只依赖尝试次数和错误分类的纯函数；
// 等待由可替换的 Sleeper 完成，测试中可以不真正睡眠。
package retry

import (
	"context"
	"time"
)

// Decision 一次失败之后的决定
type Decision int

const (
	Stop Decision = iota
	Retry
)

func (d Decision) String() string {
	if d == Retry {
		return "retry"
	}
	return "stop"
}

// Policy 重试策略
type Policy struct {
	MaxAttempts int              // 总尝试次数，包含第一次
	Delay       time.Duration    // 两次尝试之间的等待
	Retryable   func(error) bool // 错误分类，返回 true 的错误才会重试
}

// Next 在第 attempt 次尝试（从 1 开始）失败后决定是否继续
func (p Policy) Next(attempt int, err error) Decision {
	if err == nil || p.Retryable == nil {
		return Stop
	}
	if attempt >= p.MaxAttempts {
		return Stop
	}
	if !p.Retryable(err) {
		return Stop
	}
	return Retry
}

// Sleeper 在两次尝试之间等待，ctx 结束时提前返回
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep 真实等待
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoSleep 不等待
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Do 按策略执行 fn，返回最后一次的结果、实际尝试次数和最后一次的错误
func Do[T any](ctx context.Context, p Policy, sleep Sleeper, fn func(attempt int) (T, error)) (T, int, error) {
	if sleep == nil {
		sleep = Sleep
	}

	var zero T
	attempt := 0
	for {
		attempt++
		result, err := fn(attempt)
		if err == nil {
			return result, attempt, nil
		}
		if p.Next(attempt, err) == Stop {
			return zero, attempt, err
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			return zero, attempt, err
		}
	}
}
