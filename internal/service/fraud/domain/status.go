package domain

// StatusUpdateOutcome 是状态更新调用的结果类别
type StatusUpdateOutcome int

const (
	StatusUpdateApplied StatusUpdateOutcome = iota + 1
	// StatusUpdateConflict 表示订单已经是目标状态，或被并发修改
	StatusUpdateConflict
)

func (o StatusUpdateOutcome) String() string {
	switch o {
	case StatusUpdateApplied:
		return "applied"
	case StatusUpdateConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// StatusUpdateResult 取代异常控制流，由调用方显式分支处理
type StatusUpdateResult struct {
	Outcome StatusUpdateOutcome
	Reason  string
}

func StatusApplied() StatusUpdateResult {
	return StatusUpdateResult{Outcome: StatusUpdateApplied}
}

func StatusConflict(reason string) StatusUpdateResult {
	return StatusUpdateResult{Outcome: StatusUpdateConflict, Reason: reason}
}

func (r StatusUpdateResult) Applied() bool  { return r.Outcome == StatusUpdateApplied }
func (r StatusUpdateResult) Conflict() bool { return r.Outcome == StatusUpdateConflict }
