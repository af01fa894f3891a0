package rule

import (
	"sync"

	"fraudguard/internal/service/fraud/domain"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// CELRuleEngineAdapter 是 domain.RuleEngine 的 CEL 实现。
// 编译后的程序按表达式缓存，配置热更新后新表达式会在首次使用时编译。
type CELRuleEngineAdapter struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELRuleEngineAdapter 声明与 domain.NewFact 一致的变量
func NewCELRuleEngineAdapter() (*CELRuleEngineAdapter, error) {
	env, err := cel.NewEnv(
		cel.Variable("order_id", cel.StringType),
		cel.Variable("increment_id", cel.StringType),
		cel.Variable("store_id", cel.StringType),
		cel.Variable("state", cel.StringType),
		cel.Variable("payment_method", cel.StringType),
		cel.Variable("payment_offline", cel.BoolType),
		cel.Variable("discount_percent", cel.DoubleType),
		cel.Variable("coupon_codes", cel.ListType(cel.StringType)),
		cel.Variable("coupon_count", cel.IntType),
		cel.Variable("grand_total", cel.DoubleType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("customer_email", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cel environment")
	}
	return &CELRuleEngineAdapter{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile 预编译表达式，用于启动时校验配置
func (a *CELRuleEngineAdapter) Compile(expression string) error {
	_, err := a.program(expression)
	return err
}

// Evaluate 实现了 domain.RuleEngine 接口，表达式结果必须是 bool。
func (a *CELRuleEngineAdapter) Evaluate(expression string, fact domain.Fact) (bool, error) {
	prg, err := a.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}(fact))
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate %q", expression)
	}
	fired, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("expression %q returned %T, want bool", expression, out.Value())
	}
	return fired, nil
}

func (a *CELRuleEngineAdapter) program(expression string) (cel.Program, error) {
	a.mu.RLock()
	prg, ok := a.programs[expression]
	a.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := a.env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "failed to compile %q", expression)
	}
	prg, err := a.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build program for %q", expression)
	}

	a.mu.Lock()
	a.programs[expression] = prg
	a.mu.Unlock()
	return prg, nil
}
