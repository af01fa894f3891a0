package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fraudguard/internal/pkg/config"
	"fraudguard/internal/service/fraud/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
service:
  port: 9090
  processing_timeout: 5s
infra:
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
fraud_prevention:
  active: false
  max_discount_percent: 40
  email_recipients: "risk@example.com, ops@example.com"
  email_sender:
    name: General Contact
    email: general@example.com
  expression_rules:
    - name: LargeOrder
      expression: grand_total > 1000.0
  stores:
    "2":
      active: true
      store_name: Outlet
      email_recipients:
        - outlet-risk@example.com
    "3":
      max_discount_percent: 70
`

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, 5*time.Second, cfg.Service.ProcessingTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "order-placed-topic", cfg.Infra.Kafka.OrderPlacedTopic, "unset keys keep defaults")
	assert.Equal(t, config.Recipients{"risk@example.com", "ops@example.com"}, cfg.FraudPrevention.EmailRecipients)
}

func TestFraudPreventionConfig_ForStore(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	t.Run("default scope", func(t *testing.T) {
		s := cfg.FraudPrevention.ForStore("1")

		assert.False(t, s.Active)
		assert.Equal(t, 40.0, s.MaxDiscountPercent)
		assert.Equal(t, []string{"risk@example.com", "ops@example.com"}, s.EmailRecipients)
		assert.Equal(t, "General Contact", s.SenderName)
		assert.Equal(t, []domain.ExpressionRule{{Name: "LargeOrder", Expression: "grand_total > 1000.0"}}, s.ExpressionRules)
	})

	t.Run("store override only replaces configured fields", func(t *testing.T) {
		s := cfg.FraudPrevention.ForStore("2")

		assert.True(t, s.Active)
		assert.Equal(t, 40.0, s.MaxDiscountPercent)
		assert.Equal(t, []string{"outlet-risk@example.com"}, s.EmailRecipients)
		assert.Equal(t, "Outlet", s.StoreName)
		assert.Equal(t, "general@example.com", s.SenderEmail)
	})

	t.Run("store threshold override", func(t *testing.T) {
		s := cfg.FraudPrevention.ForStore("3")

		assert.False(t, s.Active)
		assert.Equal(t, 70.0, s.MaxDiscountPercent)
	})
}

func TestDefaults(t *testing.T) {
	s := config.Default().FraudPrevention.ForStore("1")

	assert.False(t, s.Active)
	assert.Equal(t, domain.DefaultMaxDiscountPercent, s.MaxDiscountPercent)
	assert.Equal(t, domain.DefaultSenderIdentity, s.SenderName)
	assert.Empty(t, s.EmailRecipients)
}

func TestParse_InvalidExpressionRule(t *testing.T) {
	_, err := config.Parse([]byte(`
fraud_prevention:
  expression_rules:
    - name: Incomplete
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expression_rules[0]")
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("FRAUD_PREVENTION_ACTIVE", "true")
	t.Setenv("FRAUD_PREVENTION_MAX_DISCOUNT_PERCENT", "25")
	t.Setenv("FRAUD_PREVENTION_EMAIL_RECIPIENTS", "a@example.com,b@example.com")
	t.Setenv("KAFKA_BROKERS", "broker:9092")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	s := cfg.FraudPrevention.ForStore("1")
	assert.True(t, s.Active)
	assert.Equal(t, 25.0, s.MaxDiscountPercent)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, s.EmailRecipients)
	assert.Equal(t, []string{"broker:9092"}, cfg.Infra.Kafka.Brokers)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8086, cfg.Service.Port)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("FRAUD_PREVENTION_ACTIVE", "maybe")

	_, err := config.Load("")
	require.Error(t, err)
}

func TestStore_ReloadFraudPrevention(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)
	store := config.NewStore(cfg)

	require.NoError(t, store.ReloadFraudPrevention([]byte(`
fraud_prevention:
  active: true
  max_discount_percent: 30
`)))

	s := store.ForStore("1")
	assert.True(t, s.Active)
	assert.Equal(t, 30.0, s.MaxDiscountPercent)
	assert.Equal(t, 9090, store.Current().Service.Port, "other sections are kept")

	err = store.ReloadFraudPrevention([]byte("fraud_prevention: [not, a, map]"))
	require.Error(t, err)
	assert.Equal(t, 30.0, store.ForStore("1").MaxDiscountPercent, "failed reload keeps previous config")
}

func TestConfig_ForStore_SenderFallsBackToSMTPFrom(t *testing.T) {
	cfg, err := config.Parse([]byte(`
fraud_prevention:
  active: true
  max_discount_percent: 50
  email_recipients: risk@example.com
`))
	require.NoError(t, err)

	s := cfg.ForStore("1")
	assert.True(t, s.Active)
	assert.Equal(t, domain.DefaultSenderIdentity, s.SenderName)
	assert.Equal(t, config.DefaultSenderAddress, s.SenderEmail)

	cfg.Infra.SMTP.From = "noreply@shop.example"
	assert.Equal(t, "noreply@shop.example", config.NewStore(cfg).ForStore("1").SenderEmail)

	explicit, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "general@example.com", explicit.ForStore("1").SenderEmail, "configured sender wins")
}

func TestStore_ReloadKeepsEnvOverrides(t *testing.T) {
	t.Setenv("FRAUD_PREVENTION_ACTIVE", "false")
	t.Setenv("FRAUD_PREVENTION_MAX_DISCOUNT_PERCENT", "25")

	cfg, err := config.Load("")
	require.NoError(t, err)
	store := config.NewStore(cfg)

	require.NoError(t, store.ReloadFraudPrevention([]byte(`
fraud_prevention:
  active: true
  max_discount_percent: 80
  email_recipients: risk@example.com
`)))

	s := store.ForStore("1")
	assert.False(t, s.Active, "environment wins over remote config")
	assert.Equal(t, 25.0, s.MaxDiscountPercent)
	assert.Equal(t, []string{"risk@example.com"}, s.EmailRecipients)
}
