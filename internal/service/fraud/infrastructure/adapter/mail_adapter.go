package adapter

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"fraudguard/internal/pkg/config"
	"fraudguard/internal/pkg/logger"
	"fraudguard/internal/service/fraud/domain"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MailNotifierAdapter 实现了 port.FraudNotifier，通过 SMTP 发送欺诈通知邮件。
type MailNotifierAdapter struct {
	sender   enmime.Sender
	template *MailTemplate
	tracer   trace.Tracer
	now      func() time.Time
}

// NewSMTPSender 根据配置创建 SMTP 发送器，用户名为空时不做认证
func NewSMTPSender(c config.SMTPConfig) enmime.Sender {
	var auth smtp.Auth
	if c.Username != "" {
		host := c.Addr
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", c.Username, c.Password, host)
	}
	return enmime.NewSMTP(c.Addr, auth)
}

// NewMailNotifierAdapter 创建邮件通知适配器
func NewMailNotifierAdapter(sender enmime.Sender, tmpl *MailTemplate, tracer trace.Tracer) *MailNotifierAdapter {
	return &MailNotifierAdapter{sender: sender, template: tmpl, tracer: tracer, now: time.Now}
}

// SendFraudAlert 渲染模板并发送给所有收件人
func (a *MailNotifierAdapter) SendFraudAlert(ctx context.Context, alert *domain.FraudAlert) error {
	ctx, span := a.tracer.Start(ctx, "adapter.SendFraudAlert", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if alert.SenderEmail == "" {
		err := errors.Errorf("sender %q has no email address", alert.SenderName)
		span.RecordError(err)
		return err
	}
	recipients, err := parseRecipients(alert.Recipients)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid recipients")
		return err
	}
	span.SetAttributes(
		attribute.String("order.id", alert.Order.ID),
		attribute.Int("mail.recipients", len(recipients)),
	)

	html, text, err := a.template.Render(alert)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = enmime.Builder().
		From(alert.SenderName, alert.SenderEmail).
		ToAddrs(recipients).
		Subject(fmt.Sprintf("Suspected fraud order #%s", orderLabel(alert.Order))).
		Date(a.now()).
		Text([]byte(text)).
		HTML([]byte(html)).
		Send(a.sender)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send mail failed")
		return errors.Wrapf(err, "failed to send fraud alert for order %s", alert.Order.ID)
	}

	logger.Ctx(ctx).Info().
		Str("order_id", alert.Order.ID).
		Int("recipients", len(recipients)).
		Msg("Fraud alert mail sent")
	return nil
}

func parseRecipients(raw []string) ([]mail.Address, error) {
	out := make([]mail.Address, 0, len(raw))
	for _, r := range raw {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid recipient %q", r)
		}
		out = append(out, *addr)
	}
	if len(out) == 0 {
		return nil, errors.New("no recipients configured")
	}
	return out, nil
}

func orderLabel(o domain.OrderSnapshot) string {
	if o.IncrementID != "" {
		return o.IncrementID
	}
	return o.ID
}
