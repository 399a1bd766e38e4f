package smtp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"openpo/internal/mailer"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      string // mandatory, opportunistic or none
	From     string
	Timeout  time.Duration
}

// Transport implements mailer.Transport over SMTP.
type Transport struct {
	config Config
}

// New creates an SMTP transport.
func New(cfg Config) *Transport {
	return &Transport{config: cfg}
}

// Name implements mailer.Transport.
func (t *Transport) Name() string { return "smtp" }

func tlsPolicy(s string) gomail.TLSPolicy {
	switch strings.ToLower(s) {
	case "none":
		return gomail.NoTLS
	case "opportunistic":
		return gomail.TLSOpportunistic
	default:
		return gomail.TLSMandatory
	}
}

func (t *Transport) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(t.config.Port),
		gomail.WithTLSPortPolicy(tlsPolicy(t.config.TLS)),
	}
	if t.config.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(t.config.Timeout))
	}
	if t.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.config.Username),
			gomail.WithPassword(t.config.Password),
		)
	}
	return opts
}

func (t *Transport) dial(ctx context.Context) (*gomail.Client, error) {
	client, err := gomail.NewClient(t.config.Host, t.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("smtp: create client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("smtp: dial %s:%d: %w", t.config.Host, t.config.Port, err)
	}
	return client, nil
}

// Open dials the server once; the returned session reuses the connection
// and redials on the next Send after a failed or timed-out message.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	client, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	return &session{transport: t, client: client, from: t.config.From}, nil
}

type session struct {
	transport *Transport
	client    *gomail.Client // nil until redialed after a failure
	from      string
	closed    bool
}

func (s *session) Send(ctx context.Context, email *mailer.Email) error {
	if s.closed {
		return mailer.ErrSessionClosed
	}
	msg, err := BuildMessage(s.from, email)
	if err != nil {
		return err
	}

	if s.client == nil {
		client, err := s.transport.dial(ctx)
		if err != nil {
			return errors.Join(mailer.ErrSendFailed, err)
		}
		s.client = client
	}

	client := s.client
	done := make(chan error, 1)
	go func() { done <- client.Send(msg) }()

	select {
	case err := <-done:
		if err != nil {
			// connection state is unknown; the next Send starts a fresh one
			s.client = nil
			_ = client.Close()
			return fmt.Errorf("smtp: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		// the in-flight send still owns the client; close it once that returns
		s.client = nil
		go func() {
			<-done
			_ = client.Close()
		}()
		return errors.Join(mailer.ErrSendFailed, ctx.Err())
	}
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
