package domain

import "strings"

// RuleName 标识一条欺诈启发式规则
type RuleName string

const (
	RuleHighDiscount    RuleName = "HighDiscount"
	RuleMultipleCoupons RuleName = "MultipleCoupons"
)

// CouponCodeSeparator 是多张优惠券在原始字段中的分隔符
const CouponCodeSeparator = ","

// SplitCouponCodes 按分隔符拆分原始优惠券字段。
// 注意空字符串拆分后长度为 1，这一边界不能改变。
func SplitCouponCodes(raw string) []string {
	return strings.Split(raw, CouponCodeSeparator)
}

// HighDiscount 在折扣百分比达到阈值时触发 (包含边界值)
func HighDiscount(s OrderSnapshot, maxDiscountPercent float64) bool {
	return s.DiscountPercent >= maxDiscountPercent
}

// MultipleCoupons 在订单使用了多于一张优惠券时触发
func MultipleCoupons(s OrderSnapshot) bool {
	return len(SplitCouponCodes(s.CouponCodes)) > 1
}

// ExpressionRule 是通过配置追加的表达式规则
type ExpressionRule struct {
	Name       RuleName
	Expression string
}

// Fact 是交给规则引擎的事实数据
type Fact map[string]interface{}

// RuleEngine 是表达式规则的求值接口，由基础设施层实现。
type RuleEngine interface {
	Evaluate(expression string, fact Fact) (bool, error)
}

// NewFact 将快照转换为规则引擎可识别的事实
func NewFact(s OrderSnapshot) Fact {
	codes := make([]string, 0)
	for _, c := range SplitCouponCodes(s.CouponCodes) {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return Fact{
		"order_id":         s.ID,
		"increment_id":     s.IncrementID,
		"store_id":         s.StoreID,
		"state":            string(s.State),
		"payment_method":   s.Payment.Method,
		"payment_offline":  s.Payment.Offline,
		"discount_percent": s.DiscountPercent,
		"coupon_codes":     codes,
		"coupon_count":     int64(len(codes)),
		"grand_total":      s.GrandTotal,
		"currency":         s.Currency,
		"customer_email":   s.CustomerEmail,
	}
}
