package adapter

import (
	"bytes"
	"embed"
	"html/template"

	"fraudguard/internal/service/fraud/domain"

	"github.com/jaytaylor/html2text"
	"github.com/pkg/errors"
)

// FraudEmailTemplateID 是欺诈通知邮件的模板标识
const FraudEmailTemplateID = "orders_fraud_email_template"

//go:embed templates/*.html
var templateFS embed.FS

// MailTemplate 负责把告警渲染成 HTML 与纯文本两种正文
type MailTemplate struct {
	tmpl *template.Template
}

func NewMailTemplate() (*MailTemplate, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+FraudEmailTemplateID+".html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse mail template")
	}
	return &MailTemplate{tmpl: tmpl}, nil
}

type templateVars struct {
	Order      domain.OrderSnapshot
	Rules      []domain.RuleName
	StoreLabel string
}

// Render 返回 HTML 正文以及由其生成的纯文本正文
func (m *MailTemplate) Render(alert *domain.FraudAlert) (string, string, error) {
	label := alert.StoreName
	if label == "" {
		label = alert.StoreID
	}

	var buf bytes.Buffer
	err := m.tmpl.ExecuteTemplate(&buf, FraudEmailTemplateID+".html", templateVars{
		Order:      alert.Order,
		Rules:      alert.Result.TriggeredRules(),
		StoreLabel: label,
	})
	if err != nil {
		return "", "", errors.Wrap(err, "failed to render mail template")
	}

	html := buf.String()
	text, err := html2text.FromString(html, html2text.Options{PrettyTables: true})
	if err != nil {
		return "", "", errors.Wrap(err, "failed to convert mail to plain text")
	}
	return html, text, nil
}
