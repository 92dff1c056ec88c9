package adapter

import "context"

// EmailSender is the port to the email delivery provider. There is no native
// bulk API; bulk sends are one call per recipient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}
