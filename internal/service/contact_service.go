package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/mailer"
)

type contactMailer interface {
	SendContactMessage(ctx context.Context, msg mailer.ContactMessage) error
}

// ContactService validates and relays contact-form submissions.
type ContactService struct {
	mailer    contactMailer
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

func NewContactService(m contactMailer, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	return &ContactService{mailer: m, validator: validate, logger: logger, metrics: metrics}
}

// Submit relays one contact message to the support inbox. Delivery is
// synchronous; a mail failure surfaces to the caller.
func (s *ContactService) Submit(ctx context.Context, msg mailer.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return appErrors.ErrValidation.Clone("Name, email and message are required")
	}
	if s.validator.Var(msg.Email, "email") != nil {
		return appErrors.ErrValidation.Clone("A valid email address is required")
	}
	if msg.Subject == "" {
		msg.Subject = "General Enquiry"
	}

	if err := s.mailer.SendContactMessage(ctx, msg); err != nil {
		s.metrics.RecordMailOutcome(false)
		s.logger.Error("contact message not delivered", zap.String("from", msg.Email), zap.Error(err))
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to send message: %s", err.Error()))
	}
	s.metrics.RecordMailOutcome(true)

	s.logger.Info("contact message relayed", zap.String("from", msg.Email))
	return nil
}
