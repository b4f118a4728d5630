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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api:
  port: 9000
  host: "127.0.0.1"
agent:
  planner: "rule"
  max_iterations: 6
booking:
  budget_limit: 2000
  fail_rate: 0.1
log:
  level: "debug"
`
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port: got %d", cfg.API.Port)
	}
	if cfg.Agent.Planner != "rule" || cfg.Agent.MaxIterations != 6 {
		t.Errorf("Agent: %+v", cfg.Agent)
	}
	if cfg.Booking.BudgetLimit != 2000 || cfg.Booking.FailRate != 0.1 {
		t.Errorf("Booking: %+v", cfg.Booking)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_EnvAPIKey(t *testing.T) {
	dir := t.TempDir()
	yaml := `
model:
  llm:
    providers:
      openai:
        api_key: "${TEST_BOOKING_OPENAI_KEY}"
        models:
          gpt_4:
            name: "gpt-4"
  defaults:
    llm: "openai.gpt_4"
`
	path := filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	t.Setenv("TEST_BOOKING_OPENAI_KEY", "sk-test")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	pc, ok := cfg.Model.LLM.Providers["openai"]
	if !ok {
		t.Fatal("openai provider missing")
	}
	if pc.APIKey != "sk-test" {
		t.Errorf("api key not replaced from env: %q", pc.APIKey)
	}
	if cfg.Model.Defaults.LLM != "openai.gpt_4" {
		t.Errorf("defaults: %q", cfg.Model.Defaults.LLM)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}
