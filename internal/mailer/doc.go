// Package mailer defines the outgoing email model, the transport/session
// contract used by the dispatcher, and the composer that renders the fixed
// open-PO notification body.
//
// A Transport is opened once per run and yields a Session; every email of the
// run goes through that session, and the caller closes it when the loop ends:
//
//	session, err := transport.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
// Concrete transports live in sub-packages: smtp (go-mail), outbox (.eml files
// for dry runs) and resend (Resend API).
package mailer
