package smtp

import (
	"bytes"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"openpo/internal/mailer"
)

// BuildMessage converts a mailer.Email into a go-mail message.
// from is used when the email does not carry its own sender.
func BuildMessage(from string, email *mailer.Email) (*gomail.Msg, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if email.From != "" {
		from = email.From
	}
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	if len(email.CC) > 0 {
		if err := msg.Cc(email.CC...); err != nil {
			return nil, fmt.Errorf("invalid cc recipient: %w", err)
		}
	}
	msg.Subject(email.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, email.HTML)

	for _, a := range email.Attachments {
		opts := []gomail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
		}
		if err := msg.AttachReader(a.Filename, bytes.NewReader(a.Content), opts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return msg, nil
}
