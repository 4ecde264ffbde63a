package email

import "context"

// Provider sends one message per recipient. Implementations report failure
// per call; the dispatcher decides what isolation means.
type Provider interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// NoOpProvider drops messages. Used when SMTP is not configured and in tests.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to string, subject string, body string) error {
	return nil
}
