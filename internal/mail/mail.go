package mail

import (
	"context"
	"log/slog"
)

// Mailer delivers one-time codes to Send recipients.
type Mailer interface {
	SendOtpEmail(ctx context.Context, email, code string) error
}

// LoggerMailer is a stub implementation that writes deliveries to the
// logger. The code itself is never logged.
type LoggerMailer struct {
	logger *slog.Logger
}

// NewLoggerMailer constructs a logging mailer stub.
func NewLoggerMailer(logger *slog.Logger) *LoggerMailer {
	return &LoggerMailer{logger: logger}
}

// SendOtpEmail records the delivery attempt.
func (m *LoggerMailer) SendOtpEmail(_ context.Context, email, _ string) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("otp email dispatched", "email", email)
	return nil
}
