package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/oceanauth/auth-api/internal/core/ports"
)

// LogSender writes outbound messages to the log instead of sending them.
// Used in development, where the raw token is also echoed in API responses.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg ports.MailMessage) error {
	s.log.Info().
		Str("recipient", msg.To).
		Str("subject", msg.Subject).
		Msg("mail delivery (log sender)")
	return nil
}
