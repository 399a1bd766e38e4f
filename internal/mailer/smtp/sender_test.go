package smtp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"openpo/internal/mailer"
)

// fakeServer is a minimal SMTP server. The first MAIL command on the first
// connection blocks until release is closed and is then rejected.
type fakeServer struct {
	ln      net.Listener
	release chan struct{}
	conns   atomic.Int32

	mu       sync.Mutex
	messages []string
}

func startFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &fakeServer{ln: ln, release: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })
	t.Cleanup(func() { close(srv.release) })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			id := srv.conns.Add(1)
			go srv.handle(conn, id == 1)
		}
	}()
	return srv
}

func (s *fakeServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeServer) handle(conn net.Conn, stall bool) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) bool {
		_, err := conn.Write([]byte(line + "\r\n"))
		return err == nil
	}

	if !reply("220 localhost ESMTP") {
		return
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))

		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			if stall {
				stall = false
				<-s.release
				reply("451 try again later")
				continue
			}
			reply("250 OK")
		case cmd == "DATA":
			reply("354 end with <CRLF>.<CRLF>")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(l, "\r\n") == "." {
					break
				}
				body.WriteString(l)
			}
			s.mu.Lock()
			s.messages = append(s.messages, body.String())
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			// RCPT, RSET, NOOP
			reply("250 OK")
		}
	}
}

func (s *fakeServer) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func TestSession_RecoversAfterSendTimeout(t *testing.T) {
	t.Parallel()

	srv := startFakeServer(t)
	transport := New(Config{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		TLS:     "none",
		From:    "scm.team@yourcompany.com",
		Timeout: 5 * time.Second,
	})

	sess, err := transport.Open(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	stalled, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	err = sess.Send(stalled, testEmail())
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	next, cancelNext := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancelNext()
	second := testEmail()
	second.Subject = "Open PO Report - Globex"
	require.NoError(t, sess.Send(next, second))

	msgs := srv.delivered()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0], "Subject: Open PO Report - Globex")
	require.EqualValues(t, 2, srv.conns.Load())
}

func TestSession_CloseWithoutClient(t *testing.T) {
	t.Parallel()

	s := &session{}
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Send(t.Context(), testEmail()), mailer.ErrSessionClosed)
}
