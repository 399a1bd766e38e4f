package smtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"openpo/internal/mailer"
)

func testEmail() *mailer.Email {
	return &mailer.Email{
		To:      []string{"orders@acme.com", "cc1@acme.com"},
		Subject: "Open PO Report - Acme Inc",
		HTML:    "<p>Dear Acme Inc Team,</p>",
		Attachments: []mailer.Attachment{{
			Filename:    "Open_PO_Acme Inc.xlsx",
			ContentType: mailer.ContentTypeXLSX,
			Content:     []byte("PK\x03\x04fake"),
		}},
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg, err := BuildMessage("scm.team@yourcompany.com", testEmail())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	require.Contains(t, raw, "From: <scm.team@yourcompany.com>")
	require.Contains(t, raw, "<orders@acme.com>")
	require.Contains(t, raw, "<cc1@acme.com>")
	require.Contains(t, raw, "Subject: Open PO Report - Acme Inc")
	require.Contains(t, raw, "Open_PO_Acme Inc.xlsx")
	require.Contains(t, raw, mailer.ContentTypeXLSX)
}

func TestBuildMessage_EmailFromOverrides(t *testing.T) {
	t.Parallel()

	email := testEmail()
	email.From = "buyer@yourcompany.com"
	email.CC = []string{"cc2@acme.com"}

	msg, err := BuildMessage("scm.team@yourcompany.com", email)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "From: <buyer@yourcompany.com>")
	require.Contains(t, buf.String(), "Cc: <cc2@acme.com>")
}

func TestBuildMessage_Invalid(t *testing.T) {
	t.Parallel()

	_, err := BuildMessage("scm.team@yourcompany.com", &mailer.Email{})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)

	_, err = BuildMessage("not an address", testEmail())
	require.Error(t, err)
}

func TestTLSPolicy(t *testing.T) {
	t.Parallel()

	require.Equal(t, gomail.NoTLS, tlsPolicy("none"))
	require.Equal(t, gomail.TLSOpportunistic, tlsPolicy("Opportunistic"))
	require.Equal(t, gomail.TLSMandatory, tlsPolicy(""))
	require.Equal(t, gomail.TLSMandatory, tlsPolicy("mandatory"))
}

func TestSession_SendAfterClose(t *testing.T) {
	t.Parallel()

	s := &session{closed: true}
	require.ErrorIs(t, s.Send(t.Context(), testEmail()), mailer.ErrSessionClosed)
	require.NoError(t, s.Close())
}
