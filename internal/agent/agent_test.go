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

package agent

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-agent/internal/agent/executor"
	"booking-agent/internal/agent/planner"
	"booking-agent/internal/booking"
	"booking-agent/internal/runtime/session"
	"booking-agent/internal/tool/builtin"
	"booking-agent/internal/tool/registry"
	"booking-agent/pkg/log"
)

var testGoal = planner.Goal{
	PassengerName: "Asha Rao",
	Departure:     "delhi",
	Destination:   "mumbai",
	MaxPrice:      5000,
	BookingDate:   "25-11-2025",
}

// newTestAgent 以固定随机种子与给定失败率装配完整编排器
func newTestAgent(t *testing.T, budget float64, bookFail, calFail float64) (*Agent, *booking.Ledger) {
	t.Helper()
	ledger := booking.NewLedger(budget)
	reg := registry.New()
	builtin.RegisterAll(reg,
		booking.NewInventory(rand.New(rand.NewSource(42))),
		booking.NewBooker(ledger, bookFail, rand.New(rand.NewSource(42))),
		booking.NewCalendar(calFail, rand.New(rand.NewSource(42))),
	)
	a := New(planner.NewBookingPlanner(), executor.NewRegistryExecutor(reg), reg, log.NewNop())
	return a, ledger
}

func stepActions(steps []session.ReasoningStep) []string {
	actions := make([]string, len(steps))
	for i, s := range steps {
		actions[i] = s.Action
	}
	return actions
}

func TestRunHappyPathConfirmed(t *testing.T) {
	a, ledger := newTestAgent(t, 10000, 0, 0)

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, StatusConfirmed, res.Result.Status)
	assert.Regexp(t, `^BK\d{6}$`, res.Result.BookingID)
	assert.Regexp(t, `^CAL\d{6}$`, res.Result.CalendarEventID)
	assert.Equal(t, []string{"search_flights", "book_flight", "add_to_calendar"}, stepActions(res.Steps))
	assert.Equal(t, res.Result.Price, ledger.Committed(), "committed spend must equal the booked price")
	assert.NotEmpty(t, res.Answer)
}

func TestRunBookingFailureIsTerminal(t *testing.T) {
	// 强制订票失败：终态 failed，无 booking_id，轨迹只有搜索和订票两步
	a, ledger := newTestAgent(t, 10000, 1.0, 0)

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err)

	assert.Equal(t, StateErrored, res.State)
	assert.Equal(t, StatusFailed, res.Result.Status)
	assert.Empty(t, res.Result.BookingID)
	assert.Equal(t, []string{"search_flights", "book_flight"}, stepActions(res.Steps),
		"no calendar step may be attempted after a failed booking")
	assert.Equal(t, 0.0, ledger.Committed())
	assert.Contains(t, res.Answer, "seat unavailability")
}

func TestRunCalendarFailureDegradesToBooked(t *testing.T) {
	a, ledger := newTestAgent(t, 10000, 0, 1.0)

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State, "calendar failure must not invalidate a successful booking")
	assert.Equal(t, StatusBooked, res.Result.Status)
	assert.NotEmpty(t, res.Result.BookingID)
	assert.Empty(t, res.Result.CalendarEventID)
	assert.Greater(t, ledger.Committed(), 0.0)
}

func TestRunNoOffersWithinBudget(t *testing.T) {
	a, ledger := newTestAgent(t, 10000, 0, 0)
	goal := testGoal
	goal.MaxPrice = 500

	res, err := a.Run(context.Background(), session.New("run1"), goal)
	require.NoError(t, err)

	assert.Equal(t, StateErrored, res.State)
	assert.Equal(t, StatusFailed, res.Result.Status)
	assert.Equal(t, []string{"search_flights"}, stepActions(res.Steps))
	assert.Equal(t, 0.0, ledger.Committed())
	assert.Contains(t, res.Answer, "No flights found")
}

func TestRunBudgetRejection(t *testing.T) {
	// 预算上限 1000，任何 3000+ 的票价都会被拒
	a, ledger := newTestAgent(t, 1000, 0, 0)

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err)

	assert.Equal(t, StateErrored, res.State)
	assert.Equal(t, StatusFailed, res.Result.Status)
	assert.Equal(t, 0.0, ledger.Committed(), "rejected booking must leave committed unchanged")
	assert.Contains(t, res.Answer, "BOOKING BLOCKED")
}

func TestRunInvalidDate(t *testing.T) {
	a, _ := newTestAgent(t, 10000, 0, 0)
	goal := testGoal
	goal.BookingDate = "31-02-2025"

	res, err := a.Run(context.Background(), session.New("run1"), goal)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Result.Status)
	assert.Contains(t, res.Answer, "DD-MM-YYYY")
}

func TestRunObservationTruncated(t *testing.T) {
	a, _ := newTestAgent(t, 10000, 0, 0)

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err)

	for _, s := range res.Steps {
		assert.LessOrEqual(t, len([]rune(s.Observation)), DefaultObservationLimit,
			"observation for %s must be truncated", s.Action)
	}
}

// loopPlanner 永远返回同一个工具步骤，用于触发迭代上限
type loopPlanner struct{}

func (loopPlanner) Next(_ context.Context, _ *session.Session, goal planner.Goal, _ []byte) (*planner.Step, error) {
	return &planner.Step{Tool: "search_flights", Input: map[string]any{
		"departure": goal.Departure, "destination": goal.Destination,
		"max_price": goal.MaxPrice, "booking_date": goal.BookingDate,
	}}, nil
}

func TestRunIterationLimit(t *testing.T) {
	ledger := booking.NewLedger(10000)
	reg := registry.New()
	builtin.RegisterAll(reg,
		booking.NewInventory(rand.New(rand.NewSource(42))),
		booking.NewBooker(ledger, 0, rand.New(rand.NewSource(42))),
		booking.NewCalendar(0, rand.New(rand.NewSource(42))),
	)
	a := New(loopPlanner{}, executor.NewRegistryExecutor(reg), reg, log.NewNop(), WithMaxIterations(3))

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err)

	assert.Equal(t, StateErrored, res.State)
	assert.Len(t, res.Steps, 3)
	assert.Contains(t, res.Answer, "iteration limit exceeded")
}

// failingPlanner 模拟规划边界出错
type failingPlanner struct{}

func (failingPlanner) Next(context.Context, *session.Session, planner.Goal, []byte) (*planner.Step, error) {
	return nil, fmt.Errorf("model unreachable")
}

func TestRunPlannerFailureBecomesFailedResult(t *testing.T) {
	a, _ := newTestAgent(t, 10000, 0, 0)
	a.planner = failingPlanner{}

	res, err := a.Run(context.Background(), session.New("run1"), testGoal)
	require.NoError(t, err, "planning failure must be converted, not propagated")

	assert.Equal(t, StateErrored, res.State)
	assert.Equal(t, StatusFailed, res.Result.Status)
	assert.Contains(t, res.Answer, "model unreachable")
}

func TestRunSequentialBookingsAccumulateSpend(t *testing.T) {
	a, ledger := newTestAgent(t, 100000, 0, 0)

	var total float64
	for i := 0; i < 3; i++ {
		res, err := a.Run(context.Background(), session.New(fmt.Sprintf("run%d", i)), testGoal)
		require.NoError(t, err)
		require.Equal(t, StatusConfirmed, res.Result.Status)
		total += res.Result.Price
	}
	assert.Equal(t, total, ledger.Committed())
}
