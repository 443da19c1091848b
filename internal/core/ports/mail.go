package ports

import "context"

// MailMessage is an outbound email carrying a verification or reset link.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// MailSender delivers a single message. Implementations decide the transport;
// the development sender only logs.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) error
}
