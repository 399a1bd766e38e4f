package mailer

import "context"

// Sender delivers a single prepared email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Session is a Sender bound to an open connection or client.
// Close releases it; Send after Close returns ErrSessionClosed.
type Session interface {
	Sender
	Close() error
}

// Located is implemented by sessions that keep messages somewhere the
// operator can inspect, such as the outbox directory of a dry run.
type Located interface {
	Location() string
}

// Transport opens sessions. One session is expected per dispatch run.
type Transport interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}
