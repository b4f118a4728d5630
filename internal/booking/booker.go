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
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"booking-agent/pkg/errors"
)

// DefaultBookingFailRate 模拟订票失败概率
const DefaultBookingFailRate = 0.05

const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// errSeatUnavailable 可靠性抽签失败；仅在 Booker 内部区分失败与超限路径
var errSeatUnavailable = fmt.Errorf("simulated seat unavailable")

// Booker 高风险动作执行器：在预算守护与模拟可靠性之下执行订票。
// 不保证幂等——相同参数调用两次产生两笔独立扣款，这是已知限制。
type Booker struct {
	ledger   *Ledger
	failRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBooker 创建订票执行器；failRate < 0 时使用 DefaultBookingFailRate，
// rng 为 nil 时使用时间种子
func NewBooker(ledger *Ledger, failRate float64, rng *rand.Rand) *Booker {
	if failRate < 0 {
		failRate = DefaultBookingFailRate
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Booker{ledger: ledger, failRate: failRate, rng: rng}
}

// Ledger 返回该执行器挂接的账本
func (b *Booker) Ledger() *Ledger { return b.ledger }

// Book 为乘客订票。校验失败返回 invalid_input；预算守护先于模拟失败判定，
// 超限拒绝不受随机抽签影响。失败与拒绝路径都不会改变账本；
// 仅 success 路径恰好提交一次扣款。
func (b *Booker) Book(flightNumber, passengerName string, price float64, date string) Outcome {
	if strings.TrimSpace(flightNumber) == "" || strings.TrimSpace(passengerName) == "" {
		return Invalid("Error: Flight number and passenger name are required")
	}
	if price <= 0 {
		return Invalid("Error: Invalid price")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Invalid("Error: Invalid date format. Please use DD-MM-YYYY format. Details: %v", err)
	}

	// 检查、抽签与提交在账本的同一临界区内完成
	err := b.ledger.ReserveWith(price, func() error {
		if b.draw() < b.failRate {
			return errSeatUnavailable
		}
		return nil
	})
	if errors.Is(err, errors.ErrBudgetExceeded) {
		return Rejected("BOOKING BLOCKED: Budget exceeded! Current spending: $%.0f, Flight cost: $%.0f, Budget limit: $%.0f",
			b.ledger.Committed(), price, b.ledger.Limit())
	}
	if err != nil {
		return Failed("Error: Booking failed due to seat unavailability. Please try another flight.")
	}

	bookingID, pnr := b.identifiers()
	return Success(
		KV{Key: "status", Val: "success"},
		KV{Key: "booking_id", Val: bookingID},
		KV{Key: "pnr", Val: pnr},
		KV{Key: "flight_number", Val: flightNumber},
		KV{Key: "passenger_name", Val: passengerName},
		KV{Key: "price", Val: price},
		KV{Key: "travel_date", Val: date},
		KV{Key: "booking_time", Val: time.Now().UTC().Format(time.RFC3339)},
		KV{Key: "message", Val: fmt.Sprintf("Flight %s successfully booked for %s", flightNumber, passengerName)},
		KV{Key: "payment_status", Val: "confirmed"},
		KV{Key: "ticket_sent", Val: true},
	)
}

func (b *Booker) draw() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64()
}

func (b *Booker) identifiers() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bookingID := fmt.Sprintf("BK%06d", b.rng.Intn(1000000))
	pnr := make([]byte, 6)
	for i := range pnr {
		pnr[i] = pnrAlphabet[b.rng.Intn(len(pnrAlphabet))]
	}
	return bookingID, string(pnr)
}
