package handlers

import (
	"context"
	"time"

	"agency-portal/internal/invite"
	"agency-portal/internal/models"
	"agency-portal/internal/wizard"

	"go.uber.org/zap"
)

// LeadForwarder дублирует заявку во внешнее хранилище (Convex).
type LeadForwarder interface {
	ForwardLead(ctx context.Context, lead *models.ContactSubmission) error
}

// Notifier отправляет транзакционные письма. Реализация отправляет их в фоне.
type Notifier interface {
	NotifyLead(lead *models.ContactSubmission) error
	SendInvitation(user *models.User, link string, expires time.Time) error
}

type Handler struct {
	Catalog   *wizard.Catalog
	Wizards   wizard.Store
	Mailer    Notifier
	Forwarder LeadForwarder // nil, если Convex не настроен
	Invites   *invite.Issuer
	InviteTTL time.Duration
	PortalURL string
	Log       *zap.Logger
}
