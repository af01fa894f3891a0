package domain

// EvaluationResult 是一次欺诈评估的结果。
// 是否可疑由触发的规则集合推导，两者不会不一致。
type EvaluationResult struct {
	triggered []RuleName
}

// NewEvaluationResult 以给定的规则构造结果，重复的规则只记录一次
func NewEvaluationResult(rules ...RuleName) EvaluationResult {
	var r EvaluationResult
	for _, name := range rules {
		r.trigger(name)
	}
	return r
}

func (r *EvaluationResult) trigger(name RuleName) {
	if r.Triggered(name) {
		return
	}
	r.triggered = append(r.triggered, name)
}

// IsFraudSuspect 当且仅当至少一条规则触发时为 true
func (r EvaluationResult) IsFraudSuspect() bool {
	return len(r.triggered) > 0
}

// Triggered 判断某条规则是否触发
func (r EvaluationResult) Triggered(name RuleName) bool {
	for _, n := range r.triggered {
		if n == name {
			return true
		}
	}
	return false
}

// TriggeredRules 按触发顺序返回规则列表的副本
func (r EvaluationResult) TriggeredRules() []RuleName {
	out := make([]RuleName, len(r.triggered))
	copy(out, r.triggered)
	return out
}
