// Package outbox is a dry-run mailer.Transport: every email is written to a
// directory as an .eml file instead of being delivered.
package outbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"openpo/internal/mailer"
	"openpo/internal/mailer/smtp"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Transport writes messages to Dir.
type Transport struct {
	Dir  string
	From string
	now  func() time.Time
}

// New creates an outbox transport.
func New(dir, from string) *Transport {
	return &Transport{Dir: dir, From: from, now: time.Now}
}

// Name implements mailer.Transport.
func (t *Transport) Name() string { return "outbox" }

// Open creates a run directory below Dir.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	runDir := filepath.Join(t.Dir, t.now().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("outbox: create %s: %w", runDir, err)
	}
	return &session{dir: runDir, from: t.From}, nil
}

type session struct {
	dir    string
	from   string
	seq    int
	closed bool
}

func (s *session) Send(ctx context.Context, email *mailer.Email) error {
	if s.closed {
		return mailer.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := smtp.BuildMessage(s.from, email)
	if err != nil {
		return err
	}

	s.seq++
	name := fmt.Sprintf("%03d_%s.eml", s.seq, unsafeFileChars.ReplaceAllString(email.Subject, "_"))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("outbox: %w", err)
	}
	defer f.Close()

	if _, err := msg.WriteTo(f); err != nil {
		return fmt.Errorf("outbox: write %s: %w", name, err)
	}
	return nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

// Location implements mailer.Located: the run directory holding the .eml files.
func (s *session) Location() string { return s.dir }
