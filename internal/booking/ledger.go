// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package booking

import (
	"sync"

	"booking-agent/pkg/errors"
)

// DefaultBudgetLimit 默认预算上限（美元）
const DefaultBudgetLimit = 1000

// Ledger 进程内共享的支出账本；Reserve 的检查与提交在同一临界区内完成，
// 并发请求不会观察到中间状态。committed 只在 Reserve 成功时增长，
// 仅 Reset 可以清零（用于独立测试运行之间）。
type Ledger struct {
	mu        sync.Mutex
	limit     float64
	committed float64
}

// NewLedger 创建账本；limit <= 0 时使用 DefaultBudgetLimit
func NewLedger(limit float64) *Ledger {
	if limit <= 0 {
		limit = DefaultBudgetLimit
	}
	return &Ledger{limit: limit}
}

// Reserve 原子地执行预算检查并提交扣款；超限时返回 ErrBudgetExceeded，
// committed 保持不变
func (l *Ledger) Reserve(amount float64) error {
	return l.ReserveWith(amount, nil)
}

// ReserveWith 在同一临界区内依次执行预算检查、gate、提交扣款。
// 预算超限时返回 ErrBudgetExceeded 且 gate 不会执行；gate 返回错误时
// 原样透传且不提交。预算检查始终先于 gate，超限拒绝是确定性的。
func (l *Ledger) ReserveWith(amount float64, gate func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.committed+amount > l.limit {
		return errors.Wrapf(errors.ErrBudgetExceeded,
			"committed %.0f + price %.0f exceeds limit %.0f", l.committed, amount, l.limit)
	}
	if gate != nil {
		if err := gate(); err != nil {
			return err
		}
	}
	l.committed += amount
	return nil
}

// Committed 当前已提交支出
func (l *Ledger) Committed() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed
}

// Limit 预算上限
func (l *Ledger) Limit() float64 {
	return l.limit
}

// Reset 清零已提交支出；仅供测试运行之间使用
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = 0
}
