package mailer

import "strings"

// ContentTypeXLSX MIME type of the per-supplier report attachment.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	From        string       // Sender address; transports fall back to their configured sender
	To          []string     // Recipients (at least one required)
	CC          []string     // Carbon copy recipients
	Subject     string       // Email subject
	HTML        string       // HTML body content
	Attachments []Attachment // File attachments
}

// Attachment represents an email attachment.
type Attachment struct {
	Filename    string // Display name for the attachment
	ContentType string // MIME type
	Content     []byte // Raw file content
}

// RecipientString joins To and CC with ";" the way desktop mail clients display them.
func (e *Email) RecipientString() string {
	all := make([]string, 0, len(e.To)+len(e.CC))
	all = append(all, e.To...)
	all = append(all, e.CC...)
	return strings.Join(all, ";")
}

// Validate checks the fields every transport requires.
func (e *Email) Validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipient
	}
	if e.Subject == "" {
		return ErrNoSubject
	}
	if e.HTML == "" {
		return ErrNoContent
	}
	return nil
}
