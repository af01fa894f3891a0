package domain

// Evaluate 对订单快照执行欺诈启发式检查。
// 它是纯函数：不做 I/O，也不修改快照。
func Evaluate(s OrderSnapshot, featureEnabled bool, maxDiscountPercent float64) EvaluationResult {
	var result EvaluationResult
	if !featureEnabled || s.Exempt() {
		return result
	}

	if HighDiscount(s, maxDiscountPercent) {
		result.trigger(RuleHighDiscount)
	}
	if MultipleCoupons(s) {
		result.trigger(RuleMultipleCoupons)
	}
	return result
}

// EvaluateWith 在内置规则之后追加执行配置中的表达式规则。
// 求值失败的表达式视为未触发，错误原样返回给调用方记录。
func EvaluateWith(s OrderSnapshot, settings Settings, engine RuleEngine) (EvaluationResult, []error) {
	result := Evaluate(s, settings.Active, settings.MaxDiscountPercent)
	if !settings.Active || s.Exempt() || engine == nil || len(settings.ExpressionRules) == 0 {
		return result, nil
	}

	var errs []error
	fact := NewFact(s)
	for _, rule := range settings.ExpressionRules {
		fired, err := engine.Evaluate(rule.Expression, fact)
		if err != nil {
			errs = append(errs, &RuleError{Rule: rule.Name, Err: err})
			continue
		}
		if fired {
			result.trigger(rule.Name)
		}
	}
	return result, errs
}

// Apply 根据评估结果给出订单的变更意图：可疑订单置为 held 并要求通知。
// 它不负责持久化或发信，由调用方执行。
func Apply(order OrderSnapshot, result EvaluationResult) (OrderSnapshot, bool) {
	if !result.IsFraudSuspect() {
		return order, false
	}
	order.State = StateHeld
	order.Status = StateHeld
	return order, true
}

// RuleError 记录某条表达式规则的求值失败
type RuleError struct {
	Rule RuleName
	Err  error
}

func (e *RuleError) Error() string {
	return "rule " + string(e.Rule) + ": " + e.Err.Error()
}

func (e *RuleError) Unwrap() error { return e.Err }
