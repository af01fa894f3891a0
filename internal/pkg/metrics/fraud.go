package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FraudMetrics 汇总欺诈防控流程的指标
type FraudMetrics struct {
	Evaluations          *prometheus.CounterVec
	RuleTriggers         *prometheus.CounterVec
	Holds                prometheus.Counter
	StatusConflicts      prometheus.Counter
	NotificationFailures prometheus.Counter
	RuleErrors           *prometheus.CounterVec
}

// NewFraudMetrics 创建并注册指标。reg 为 nil 时使用默认注册器。
func NewFraudMetrics(reg prometheus.Registerer) *FraudMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &FraudMetrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud_prevention",
			Name:      "evaluations_total",
			Help:      "Number of order evaluations by outcome.",
		}, []string{"outcome"}),
		RuleTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud_prevention",
			Name:      "rule_triggers_total",
			Help:      "Number of times each fraud rule fired.",
		}, []string{"rule"}),
		Holds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fraud_prevention",
			Name:      "orders_held_total",
			Help:      "Number of orders put on hold.",
		}),
		StatusConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fraud_prevention",
			Name:      "status_conflicts_total",
			Help:      "Number of hold requests refused because of a status conflict.",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fraud_prevention",
			Name:      "notification_failures_total",
			Help:      "Number of fraud alert notifications that could not be sent.",
		}),
		RuleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud_prevention",
			Name:      "rule_errors_total",
			Help:      "Number of expression rule evaluation errors.",
		}, []string{"rule"}),
	}
	reg.MustRegister(m.Evaluations, m.RuleTriggers, m.Holds, m.StatusConflicts, m.NotificationFailures, m.RuleErrors)
	return m
}
