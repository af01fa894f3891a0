package domain

// State 定义了订单的生命周期状态 (state 与 status 在本服务中取同一组值)
type State string

const (
	StateNew            State = "new"
	StatePendingPayment State = "pending_payment" // 尚未形成真实的资金承诺，不参与欺诈评估
	StateProcessing     State = "processing"
	StateComplete       State = "complete"
	StateClosed         State = "closed"
	StateCanceled       State = "canceled"
	StateHeld           State = "held" // 人工审核之前暂停履约
)
