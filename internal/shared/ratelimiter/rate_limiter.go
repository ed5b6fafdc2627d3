package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Pacer は、ベンダーAPI呼び出しなどの操作の間隔を制御するインターフェースです。
type Pacer interface {
	// Wait は次の操作が許可されるまで待機します。
	// コンテキストがキャンセルされた場合は ctx.Err() を返します。
	Wait(ctx context.Context) error
}

// IntervalPacer は呼び出し間に最低 interval の間隔を保証します。
// 複数の goroutine から共有しても安全です。
type IntervalPacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewIntervalPacer は新しい IntervalPacer のインスタンスを生成します。
func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	return &IntervalPacer{interval: interval}
}

// Wait は前回の許可から interval が経過するまで待機します。
// 待機枠はロック中に予約されるため、並行呼び出しは順番に間隔を空けて許可されます。
func (p *IntervalPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	wait := p.next.Sub(now)
	p.next = p.next.Add(p.interval)
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
