// Copyright 2026 fanjia1024
// Secret store tests

package secrets

import (
	"context"
	"strings"
	"testing"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		wantErr     bool
		errContains string
	}{
		{name: "memory", provider: "memory", wantErr: false},
		{name: "env", provider: "env", wantErr: false},
		{name: "empty defaults to env", provider: "", wantErr: false},
		{name: "unknown provider", provider: "unknown", wantErr: true, errContains: "unsupported secret provider"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewStore(Config{Provider: tc.provider})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tc.errContains != "" && !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("error = %q, want contains %q", err.Error(), tc.errContains)
				}
				if store != nil {
					t.Fatalf("store should be nil when error occurs")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store == nil {
				t.Fatalf("store should not be nil")
			}
		})
	}
}

func TestMemoryStoreBasicContract(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "secret_test_key", "value"); err != nil {
		t.Fatalf("set secret failed: %v", err)
	}
	got, err := s.Get(ctx, "secret_test_key")
	if err != nil {
		t.Fatalf("get secret failed: %v", err)
	}
	if got != "value" {
		t.Fatalf("get secret = %q, want value", got)
	}
	_, err = s.Get(ctx, "secret_missing_key")
	if err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestEnvStore(t *testing.T) {
	ctx := context.Background()
	s := NewEnvStore()

	t.Setenv("SECRET_TEST_ENV_KEY", "env-value")
	got, err := s.Get(ctx, "SECRET_TEST_ENV_KEY")
	if err != nil {
		t.Fatalf("get secret failed: %v", err)
	}
	if got != "env-value" {
		t.Fatalf("get secret = %q, want env-value", got)
	}
	_, err = s.Get(ctx, "SECRET_TEST_ENV_MISSING")
	if err == nil {
		t.Fatalf("expected error for unset variable")
	}
}
