// Package contact relays contact-form submissions to the support inbox.
package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/brieflyhq/briefly-backend/internal/mailer"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

// SubmitRequest is an inbound contact-form submission. Priority is derived
// from the caller's subscription, never from the payload.
type SubmitRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Topic    string `json:"topic"`
	Message  string `json:"message" validate:"required"`
	Priority bool   `json:"-"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) error
}

type service struct {
	mailer mailer.Mailer
	logger *logger.Logger
}

func NewService(m mailer.Mailer, log *logger.Logger) (Service, error) {
	if m == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{mailer: m, logger: log}, nil
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) error {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)
	if name == "" || email == "" || message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name, email and message are required")
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = "General"
	}

	msg := mailer.ContactMessage{
		Name:     name,
		Email:    email,
		Subject:  fmt.Sprintf("[Contact] %s - %s", topic, name),
		Body:     message,
		Priority: req.Priority,
	}
	if err := s.mailer.SendContactMessage(ctx, msg); err != nil {
		s.logger.Error(ctx, "contact message relay failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending contact message")
	}
	return nil
}
