// Package mailer отправляет транзакционные письма через Resend.
// Отправка всегда асинхронная: ошибка доставки не должна ломать ответ формы.
package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agency-portal/internal/logger"
	"agency-portal/internal/metrics"
	"agency-portal/internal/models"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, from string, msg Message) (string, error)
}

type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (r *ResendSender) Send(ctx context.Context, from string, msg Message) (string, error) {
	resp, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// LogSender для локальной разработки без ключа Resend: письмо только логируется.
type LogSender struct {
	Log *zap.Logger
}

func (l LogSender) Send(_ context.Context, from string, msg Message) (string, error) {
	l.Log.Info("email (not sent, no provider configured)",
		zap.String("from", from),
		zap.Int("recipients", len(msg.To)),
		zap.String("subject", msg.Subject),
	)
	return "logged", nil
}

type Mailer struct {
	sender  Sender
	from    string
	inbox   string
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func New(sender Sender, from, inbox string, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{
		sender:  sender,
		from:    from,
		inbox:   inbox,
		timeout: 15 * time.Second,
		log:     log,
	}
}

// SendAsync отправляет письмо в фоне со своим таймаутом, не дожидаясь результата.
func (m *Mailer) SendAsync(kind string, msg Message) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("panic while sending email", zap.String("kind", kind), zap.Any("panic", r))
				metrics.IncrementEmail(kind, "failed")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		id, err := m.sender.Send(ctx, m.from, msg)
		if err != nil {
			m.log.Error("failed to send email",
				zap.String("kind", kind),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			metrics.IncrementEmail(kind, "failed")
			return
		}
		m.log.Info("email sent", zap.String("kind", kind), zap.String("provider_id", id))
		metrics.IncrementEmail(kind, "sent")
	}()
}

// Wait дожидается фоновых отправок (graceful shutdown, тесты).
func (m *Mailer) Wait() {
	m.wg.Wait()
}

// NotifyLead шлёт уведомление команде и подтверждение автору заявки.
func (m *Mailer) NotifyLead(lead *models.ContactSubmission) error {
	notification, err := renderLeadNotification(lead)
	if err != nil {
		return err
	}
	confirmation, err := renderLeadConfirmation(lead)
	if err != nil {
		return err
	}

	m.SendAsync("lead_notification", Message{
		To:      []string{m.inbox},
		ReplyTo: lead.Email,
		Subject: fmt.Sprintf("New enquiry from %s", lead.Name),
		HTML:    notification,
	})
	m.SendAsync("lead_confirmation", Message{
		To:      []string{lead.Email},
		Subject: "We received your message",
		HTML:    confirmation,
	})

	m.log.Info("lead emails queued", zap.Uint("lead_id", lead.ID), logger.Email(lead.Email))
	return nil
}

func (m *Mailer) SendInvitation(user *models.User, link string, expires time.Time) error {
	html, err := renderInvitation(user.Name, link, expires)
	if err != nil {
		return err
	}
	m.SendAsync("invitation", Message{
		To:      []string{user.Email},
		Subject: "Your client portal invitation",
		HTML:    html,
	})
	return nil
}

func (m *Mailer) SendDigest(leads []models.ContactSubmission) error {
	if len(leads) == 0 {
		return nil
	}
	html, err := renderDigest(leads)
	if err != nil {
		return err
	}
	m.SendAsync("stale_lead_digest", Message{
		To:      []string{m.inbox},
		Subject: fmt.Sprintf("%d enquiries waiting for a reply", len(leads)),
		HTML:    html,
	})
	return nil
}
