package domain_test

import (
	"errors"
	"testing"

	"fraudguard/internal/service/fraud/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processingOrder(id string) domain.OrderSnapshot {
	return domain.OrderSnapshot{
		ID:      id,
		StoreID: "1",
		State:   domain.StateProcessing,
		Status:  domain.StateProcessing,
		Payment: domain.Payment{Method: "checkmo"},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		mutate   func(*domain.OrderSnapshot)
		expected []domain.RuleName
	}{
		{
			name:     "high discount only",
			enabled:  true,
			mutate:   func(s *domain.OrderSnapshot) { s.ID = "123"; s.DiscountPercent = 60 },
			expected: []domain.RuleName{domain.RuleHighDiscount},
		},
		{
			name:    "multiple coupons only",
			enabled: true,
			mutate: func(s *domain.OrderSnapshot) {
				s.ID = "124"
				s.DiscountPercent = 10
				s.CouponCodes = "SAVE10,WELCOME5"
			},
			expected: []domain.RuleName{domain.RuleMultipleCoupons},
		},
		{
			name:    "offline payment overrides both rules",
			enabled: true,
			mutate: func(s *domain.OrderSnapshot) {
				s.ID = "125"
				s.Payment.Offline = true
				s.DiscountPercent = 90
				s.CouponCodes = "A,B"
			},
		},
		{
			name:    "feature disabled",
			enabled: false,
			mutate: func(s *domain.OrderSnapshot) {
				s.DiscountPercent = 100
				s.CouponCodes = "A,B,C"
			},
		},
		{
			name:    "pending payment is exempt",
			enabled: true,
			mutate: func(s *domain.OrderSnapshot) {
				s.State = domain.StatePendingPayment
				s.DiscountPercent = 100
				s.CouponCodes = "A,B"
			},
		},
		{
			name:    "missing id is exempt",
			enabled: true,
			mutate: func(s *domain.OrderSnapshot) {
				s.ID = ""
				s.DiscountPercent = 100
				s.CouponCodes = "A,B"
			},
		},
		{
			name:     "discount at threshold",
			enabled:  true,
			mutate:   func(s *domain.OrderSnapshot) { s.DiscountPercent = 50 },
			expected: []domain.RuleName{domain.RuleHighDiscount},
		},
		{
			name:    "discount just below threshold",
			enabled: true,
			mutate:  func(s *domain.OrderSnapshot) { s.DiscountPercent = 49 },
		},
		{
			name:    "empty coupon string",
			enabled: true,
			mutate:  func(s *domain.OrderSnapshot) { s.CouponCodes = "" },
		},
		{
			name:    "single coupon",
			enabled: true,
			mutate:  func(s *domain.OrderSnapshot) { s.CouponCodes = "A" },
		},
		{
			name:     "two coupons",
			enabled:  true,
			mutate:   func(s *domain.OrderSnapshot) { s.CouponCodes = "A,B" },
			expected: []domain.RuleName{domain.RuleMultipleCoupons},
		},
		{
			name:    "both rules fire",
			enabled: true,
			mutate: func(s *domain.OrderSnapshot) {
				s.DiscountPercent = 75
				s.CouponCodes = "A,B"
			},
			expected: []domain.RuleName{domain.RuleHighDiscount, domain.RuleMultipleCoupons},
		},
		{
			name:    "negative discount is accepted as-is",
			enabled: true,
			mutate:  func(s *domain.OrderSnapshot) { s.DiscountPercent = -20 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := processingOrder("100")
			tt.mutate(&snapshot)

			result := domain.Evaluate(snapshot, tt.enabled, domain.DefaultMaxDiscountPercent)

			assert.Equal(t, len(tt.expected) > 0, result.IsFraudSuspect())
			if diff := cmp.Diff(tt.expected, result.TriggeredRules(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("triggered rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_CustomThreshold(t *testing.T) {
	snapshot := processingOrder("200")
	snapshot.DiscountPercent = 30

	assert.True(t, domain.Evaluate(snapshot, true, 30).Triggered(domain.RuleHighDiscount))
	assert.False(t, domain.Evaluate(snapshot, true, 31).Triggered(domain.RuleHighDiscount))
}

func TestApply(t *testing.T) {
	t.Run("suspect order is held", func(t *testing.T) {
		snapshot := processingOrder("123")
		snapshot.DiscountPercent = 60

		result := domain.Evaluate(snapshot, true, domain.DefaultMaxDiscountPercent)
		updated, notify := domain.Apply(snapshot, result)

		assert.True(t, notify)
		assert.Equal(t, domain.StateHeld, updated.State)
		assert.Equal(t, domain.StateHeld, updated.Status)
		assert.Equal(t, "held", string(updated.Status))
		assert.Equal(t, domain.StateProcessing, snapshot.State, "input snapshot must not change")
	})

	t.Run("clean order is unchanged", func(t *testing.T) {
		snapshot := processingOrder("126")

		updated, notify := domain.Apply(snapshot, domain.EvaluationResult{})

		assert.False(t, notify)
		assert.Equal(t, snapshot, updated)
	})
}

type stubEngine map[string]struct {
	fired bool
	err   error
}

func (s stubEngine) Evaluate(expression string, _ domain.Fact) (bool, error) {
	r := s[expression]
	return r.fired, r.err
}

func TestEvaluateWith(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Active = true
	settings.ExpressionRules = []domain.ExpressionRule{
		{Name: "LargeOrder", Expression: "large"},
		{Name: "Broken", Expression: "broken"},
		{Name: "Quiet", Expression: "quiet"},
	}
	engine := stubEngine{
		"large":  {fired: true},
		"broken": {err: errors.New("no such attribute")},
		"quiet":  {fired: false},
	}

	t.Run("expression rules extend built-in rules", func(t *testing.T) {
		snapshot := processingOrder("300")
		snapshot.CouponCodes = "A,B"

		result, errs := domain.EvaluateWith(snapshot, settings, engine)

		assert.Equal(t, []domain.RuleName{domain.RuleMultipleCoupons, "LargeOrder"}, result.TriggeredRules())
		require.Len(t, errs, 1)
		var ruleErr *domain.RuleError
		require.ErrorAs(t, errs[0], &ruleErr)
		assert.Equal(t, domain.RuleName("Broken"), ruleErr.Rule)
	})

	t.Run("exempt orders skip expression rules", func(t *testing.T) {
		snapshot := processingOrder("301")
		snapshot.Payment.Offline = true

		result, errs := domain.EvaluateWith(snapshot, settings, engine)

		assert.False(t, result.IsFraudSuspect())
		assert.Empty(t, errs)
	})

	t.Run("inactive settings skip everything", func(t *testing.T) {
		inactive := settings
		inactive.Active = false

		result, errs := domain.EvaluateWith(processingOrder("302"), inactive, engine)

		assert.False(t, result.IsFraudSuspect())
		assert.Empty(t, errs)
	})
}

func TestEvaluationResult(t *testing.T) {
	r := domain.NewEvaluationResult(domain.RuleHighDiscount, domain.RuleHighDiscount)
	assert.Equal(t, []domain.RuleName{domain.RuleHighDiscount}, r.TriggeredRules())
	assert.True(t, r.IsFraudSuspect())

	assert.False(t, domain.NewEvaluationResult().IsFraudSuspect())
}

func TestOrderPlaced_Snapshot(t *testing.T) {
	event := &domain.OrderPlaced{
		EventID:         "evt-1",
		OrderID:         "123",
		StoreID:         "1",
		State:           "processing",
		PaymentMethod:   "banktransfer",
		PaymentOffline:  true,
		DiscountPercent: 12.5,
		CouponCode:      "A,B",
	}

	s := event.Snapshot()

	assert.Equal(t, "123", s.ID)
	assert.Equal(t, domain.StateProcessing, s.Status)
	assert.True(t, s.Payment.Offline)
	assert.Equal(t, "A,B", s.CouponCodes)
	assert.Equal(t, "event:evt-1", event.IdempotencyKey())

	event.EventID = ""
	assert.Equal(t, "order:123", event.IdempotencyKey())
	event.OrderID = ""
	assert.Empty(t, event.IdempotencyKey())
}

func TestNewFact(t *testing.T) {
	s := processingOrder("400")
	s.CouponCodes = "A, ,B"
	s.GrandTotal = 99.5

	fact := domain.NewFact(s)

	assert.Equal(t, []string{"A", "B"}, fact["coupon_codes"])
	assert.Equal(t, int64(2), fact["coupon_count"])
	assert.Equal(t, 99.5, fact["grand_total"])
}
