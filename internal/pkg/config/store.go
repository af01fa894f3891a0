package config

import (
	"sync"

	"fraudguard/internal/service/fraud/domain"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Store 持有当前生效的配置，支持从配置中心热更新 fraud_prevention 段
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// Current 返回当前配置，调用方不应修改返回值
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ForStore 实现 port.SettingsProvider
func (s *Store) ForStore(storeID string) domain.Settings {
	return s.Current().ForStore(storeID)
}

// ReloadFraudPrevention 用远程 YAML 文档替换 fraud_prevention 段，其余配置保持不变。
// 解析或校验失败时保留旧配置。
func (s *Store) ReloadFraudPrevention(data []byte) error {
	var doc struct {
		FraudPrevention FraudPreventionConfig `yaml:"fraud_prevention"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "failed to parse fraud_prevention config")
	}
	if err := doc.FraudPrevention.Validate(); err != nil {
		return err
	}
	// 环境变量优先于远程配置
	if err := applyFraudPreventionEnv(&doc.FraudPrevention); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.cfg
	next.FraudPrevention = doc.FraudPrevention
	s.cfg = &next
	return nil
}
