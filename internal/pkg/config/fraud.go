package config

import (
	"fmt"
	"strings"

	"fraudguard/internal/service/fraud/domain"

	"gopkg.in/yaml.v3"
)

// FraudPreventionConfig 对应 fraud_prevention 配置段。
// 指针字段为 nil 表示未配置，店铺作用域只覆盖显式配置的字段。
type FraudPreventionConfig struct {
	Active             *bool                            `yaml:"active"`
	MaxDiscountPercent *float64                         `yaml:"max_discount_percent"`
	EmailRecipients    Recipients                       `yaml:"email_recipients"`
	EmailSender        *SenderConfig                    `yaml:"email_sender"`
	StoreName          string                           `yaml:"store_name"`
	ExpressionRules    []ExpressionRuleConfig           `yaml:"expression_rules"`
	Stores             map[string]FraudPreventionConfig `yaml:"stores"`
}

type SenderConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type ExpressionRuleConfig struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// Recipients 既接受 YAML 列表，也接受逗号分隔的字符串
type Recipients []string

func (r *Recipients) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*r = splitRecipients(value.Value)
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*r = list
	return nil
}

func splitRecipients(raw string) Recipients {
	out := Recipients{}
	for _, addr := range strings.Split(raw, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Validate 检查表达式规则是否完整
func (c FraudPreventionConfig) Validate() error {
	for i, r := range c.ExpressionRules {
		if r.Name == "" || r.Expression == "" {
			return fmt.Errorf("fraud_prevention.expression_rules[%d]: name and expression are required", i)
		}
	}
	for id, store := range c.Stores {
		if len(store.Stores) > 0 {
			return fmt.Errorf("fraud_prevention.stores.%s: nested stores are not supported", id)
		}
		if err := store.Validate(); err != nil {
			return fmt.Errorf("fraud_prevention.stores.%s: %w", id, err)
		}
	}
	return nil
}

// ForStore 解析店铺作用域下的最终配置：默认值 < 全局配置 < 店铺配置
func (c FraudPreventionConfig) ForStore(storeID string) domain.Settings {
	s := domain.DefaultSettings()
	c.overlay(&s)
	if store, ok := c.Stores[storeID]; ok {
		store.overlay(&s)
	}
	return s
}

func (c FraudPreventionConfig) overlay(s *domain.Settings) {
	if c.Active != nil {
		s.Active = *c.Active
	}
	if c.MaxDiscountPercent != nil {
		s.MaxDiscountPercent = *c.MaxDiscountPercent
	}
	if c.EmailRecipients != nil {
		s.EmailRecipients = append([]string(nil), c.EmailRecipients...)
	}
	if c.EmailSender != nil {
		if c.EmailSender.Name != "" {
			s.SenderName = c.EmailSender.Name
		}
		if c.EmailSender.Email != "" {
			s.SenderEmail = c.EmailSender.Email
		}
	}
	if c.StoreName != "" {
		s.StoreName = c.StoreName
	}
	if c.ExpressionRules != nil {
		s.ExpressionRules = make([]domain.ExpressionRule, 0, len(c.ExpressionRules))
		for _, r := range c.ExpressionRules {
			s.ExpressionRules = append(s.ExpressionRules, domain.ExpressionRule{
				Name:       domain.RuleName(r.Name),
				Expression: r.Expression,
			})
		}
	}
}
