package domain

// DefaultMaxDiscountPercent 是折扣阈值的默认值
const DefaultMaxDiscountPercent = 50.0

// DefaultSenderIdentity 是未配置发件人时使用的身份
const DefaultSenderIdentity = "general"

// Settings 是某个店铺作用域下已解析完毕的欺诈防控配置。
// 通过参数显式传入，评估逻辑不读取任何全局配置。
type Settings struct {
	Active             bool
	MaxDiscountPercent float64
	EmailRecipients    []string
	SenderName         string
	SenderEmail        string
	StoreName          string
	ExpressionRules    []ExpressionRule
}

// DefaultSettings 返回未做任何配置时的取值
func DefaultSettings() Settings {
	return Settings{
		Active:             false,
		MaxDiscountPercent: DefaultMaxDiscountPercent,
		SenderName:         DefaultSenderIdentity,
	}
}
