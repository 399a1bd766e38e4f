package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"openpo/internal/mailer"
)

// Config holds Resend email provider configuration.
type Config struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

// Transport implements mailer.Transport using the Resend API.
type Transport struct {
	client *resend.Client
	config Config
}

// New creates a new Resend transport.
func New(cfg Config) *Transport {
	return &Transport{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}
}

// Name implements mailer.Transport.
func (t *Transport) Name() string { return "resend" }

// Open implements mailer.Transport. The HTTP client is shared, so a session
// only tracks its own closed state.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	return &session{t: t}, nil
}

type session struct {
	t      *Transport
	closed bool
}

func (s *session) Send(ctx context.Context, email *mailer.Email) error {
	if s.closed {
		return mailer.ErrSessionClosed
	}
	if err := email.Validate(); err != nil {
		return err
	}

	_, err := s.t.client.Emails.SendWithContext(ctx, s.t.buildRequest(email))
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

func (t *Transport) from(email *mailer.Email) string {
	addr := email.From
	if addr == "" {
		addr = t.config.SenderEmail
	}
	if t.config.SenderName != "" {
		return fmt.Sprintf("%s <%s>", t.config.SenderName, addr)
	}
	return addr
}

func (t *Transport) buildRequest(email *mailer.Email) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    t.from(email),
		To:      email.To,
		Cc:      email.CC,
		Subject: email.Subject,
		Html:    email.HTML,
	}
	if len(email.Attachments) > 0 {
		req.Attachments = convertAttachments(email.Attachments)
	}
	return req
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		}
	}
	return result
}
