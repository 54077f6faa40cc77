package user

import (
	"context"
	"io"
	"log"
)

// Notifier delivers password-reset codes to the user.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogNotifier writes codes to the service log. Meant for development setups without a mailer.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendOTP(_ context.Context, email, code string) error {
	n.logger.Printf("user service: otp issued email=%s code=%s", email, code)
	return nil
}
