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

package app

import (
	"context"
	"fmt"
	"strings"

	"booking-agent/internal/booking"
	"booking-agent/internal/tool/builtin"
	"booking-agent/internal/tool/registry"
	"booking-agent/pkg/config"
	"booking-agent/pkg/log"
	"booking-agent/pkg/secrets"
)

// Bootstrap 统一初始化：供 api 与 cli 复用，避免在 cmd 内写业务装配
type Bootstrap struct {
	Config    *config.Config
	Logger    *log.Logger
	Ledger    *booking.Ledger
	Inventory *booking.Inventory
	Booker    *booking.Booker
	Calendar  *booking.Calendar
	Registry  *registry.Registry
	Secrets   secrets.Store
}

// NewBootstrap 根据配置创建 Bootstrap（账本/库存/订座/日历/工具注册表）
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	budgetLimit := 0.0
	bookFailRate := booking.DefaultBookingFailRate
	calFailRate := booking.DefaultCalendarFailRate
	if cfg != nil {
		budgetLimit = cfg.Booking.BudgetLimit
		// 0 视为未配置；负数表示显式关闭失败模拟
		if cfg.Booking.FailRate != 0 {
			bookFailRate = cfg.Booking.FailRate
		}
		if cfg.Calendar.FailRate != 0 {
			calFailRate = cfg.Calendar.FailRate
		}
	}
	if bookFailRate < 0 {
		bookFailRate = 0
	}
	if calFailRate < 0 {
		calFailRate = 0
	}
	ledger := booking.NewLedger(budgetLimit)
	inventory := booking.NewInventory(nil)
	booker := booking.NewBooker(ledger, bookFailRate, nil)
	calendar := booking.NewCalendar(calFailRate, nil)

	reg := registry.New()
	builtin.RegisterAll(reg, inventory, booker, calendar)

	var secretStore secrets.Store
	if cfg != nil {
		secretStore, err = secrets.NewStore(secrets.Config{
			Provider:   cfg.Secrets.Type,
			VaultAddr:  cfg.Secrets.VaultAddr,
			VaultToken: cfg.Secrets.VaultToken,
			VaultPath:  cfg.Secrets.VaultPath,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化密钥存储failed: %w", err)
		}
		if err := resolveModelSecrets(cfg, secretStore, logger); err != nil {
			return nil, err
		}
	}

	return &Bootstrap{
		Config:    cfg,
		Logger:    logger,
		Ledger:    ledger,
		Inventory: inventory,
		Booker:    booker,
		Calendar:  calendar,
		Registry:  reg,
		Secrets:   secretStore,
	}, nil
}

// resolveModelSecrets 为未内联 api_key 的 Provider 从密钥存储补齐。
// 密钥名约定：<provider>_api_key，如 openai_api_key。
func resolveModelSecrets(cfg *config.Config, store secrets.Store, logger *log.Logger) error {
	for name, provider := range cfg.Model.LLM.Providers {
		if provider.APIKey != "" && !strings.HasPrefix(provider.APIKey, "$") {
			continue
		}
		key, err := store.Get(context.Background(), name+"_api_key")
		if err != nil || key == "" {
			logger.Warn("未找到模型 API Key，该 Provider 将不可用", "provider", name)
			continue
		}
		provider.APIKey = key
		cfg.Model.LLM.Providers[name] = provider
	}
	return nil
}
