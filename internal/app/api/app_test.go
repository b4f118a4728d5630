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

package api

import (
	"context"
	"testing"

	"booking-agent/internal/agent"
	"booking-agent/internal/agent/planner"
	"booking-agent/internal/app"
	"booking-agent/pkg/config"
)

func TestNewAppDefaultsToRulePlanner(t *testing.T) {
	bootstrap, err := app.NewBootstrap(nil)
	if err != nil {
		t.Fatalf("NewBootstrap: %v", err)
	}
	application, err := NewApp(bootstrap)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if application.Engine() != nil {
		t.Error("engine should not be assembled without model config")
	}
}

func TestNewAppRejectsNilBootstrap(t *testing.T) {
	if _, err := NewApp(nil); err == nil {
		t.Fatal("expected error for nil bootstrap")
	}
}

func TestBuildPlannerUnknownKind(t *testing.T) {
	cfg := &config.Config{}
	cfg.Agent.Planner = "quantum"
	bootstrap, err := app.NewBootstrap(cfg)
	if err != nil {
		t.Fatalf("NewBootstrap: %v", err)
	}
	if _, err := NewApp(bootstrap); err == nil {
		t.Fatal("expected error for unknown planner kind")
	}
}

func TestBuildPlannerLLMRequiresModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Agent.Planner = "llm"
	bootstrap, err := app.NewBootstrap(cfg)
	if err != nil {
		t.Fatalf("NewBootstrap: %v", err)
	}
	if _, err := NewApp(bootstrap); err == nil {
		t.Fatal("expected error when llm planner has no default model")
	}
}

func TestRunBookingCreatesSession(t *testing.T) {
	cfg := &config.Config{}
	// 失败率归零，保证编排结果只由预算与库存决定
	cfg.Booking.BudgetLimit = 100000
	cfg.Booking.FailRate = -1
	cfg.Calendar.FailRate = -1
	bootstrap, err := app.NewBootstrap(cfg)
	if err != nil {
		t.Fatalf("NewBootstrap: %v", err)
	}
	application, err := NewApp(bootstrap)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	run, err := application.RunBooking(context.Background(), planner.Goal{
		PassengerName: "Asha Rao",
		Departure:     "delhi",
		Destination:   "mumbai",
		MaxPrice:      50000,
		BookingDate:   "25-11-2025",
	})
	if err != nil {
		t.Fatalf("RunBooking: %v", err)
	}
	if run.Result.Status == agent.StatusFound {
		t.Errorf("status = %q, booking should have been attempted", run.Result.Status)
	}
	if len(run.Steps) == 0 {
		t.Error("expected reasoning steps")
	}
}
