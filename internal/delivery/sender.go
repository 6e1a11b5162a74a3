package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/VKx64/Farely-Backend/internal/models"
)

// Sender delivers a one-time passcode to a contact address. Transport
// implementations (SMS, email) plug in here; the service never returns the
// code to the caller.
type Sender interface {
	SendOTP(ctx context.Context, method models.ContactMethod, to, code string) error
}

// LogSender stands in when no transport is configured. The code is written
// at debug level only, for local development.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendOTP(_ context.Context, method models.ContactMethod, to, code string) error {
	s.log.Info("otp issued",
		zap.String("method", string(method)),
		zap.String("to", to),
	)
	s.log.Debug("otp code", zap.String("code", code))
	return nil
}
