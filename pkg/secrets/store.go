// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
	"fmt"
)

// Store Secret 存储接口
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)

	// Set 设置 secret 值
	Set(ctx context.Context, key string, value string) error
}

// Config Secret Store 配置
type Config struct {
	Provider   string `yaml:"provider"` // env | vault | memory
	VaultAddr  string `yaml:"vault_addr"`
	VaultToken string `yaml:"vault_token"`
	VaultPath  string `yaml:"vault_path"`
}

// NewStore 创建 Secret Store；vault 连接失败时返回错误由调用方决定是否降级
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "vault":
		return NewVaultStore(VaultConfig{
			Address:    config.VaultAddr,
			Token:      config.VaultToken,
			PathPrefix: config.VaultPath,
		})
	case "memory":
		return NewMemoryStore(), nil
	case "env", "":
		return NewEnvStore(), nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}
