package smtp

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// fakeServer is a minimal SMTP server that records one session.
type fakeServer struct {
	ln       net.Listener
	starttls bool
	rcptCode int

	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
}

func startFakeServer(t *testing.T, starttls bool, rcptCode int) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, starttls: starttls, rcptCode: rcptCode}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 fake ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			if s.starttls {
				_ = tp.PrintfLine("250-fake")
				_ = tp.PrintfLine("250 STARTTLS")
			} else {
				_ = tp.PrintfLine("250 fake")
			}
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			s.mu.Lock()
			s.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
			s.mu.Unlock()
			_ = tp.PrintfLine("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			if s.rcptCode != 0 {
				_ = tp.PrintfLine("%d mailbox unavailable", s.rcptCode)
				continue
			}
			s.mu.Lock()
			s.rcpts = append(s.rcpts, strings.Trim(line[len("RCPT TO:"):], "<> "))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 ok")
		case cmd == "DATA":
			_ = tp.PrintfLine("354 go ahead")
			lines, _ := tp.ReadDotLines()
			s.mu.Lock()
			s.data = strings.Join(lines, "\n")
			s.mu.Unlock()
			_ = tp.PrintfLine("250 queued")
		case cmd == "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("502 not implemented")
		}
	}
}

func newTestTransport(t *testing.T, srv *fakeServer, insecure bool) *Transport {
	t.Helper()
	tr, err := New(Config{
		Host:          "127.0.0.1",
		Port:          srv.port(),
		From:          "bot@example.com",
		AllowInsecure: insecure,
	})
	require.NoError(t, err)
	tr.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return tr
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	tr, err := New(Config{Username: "me@gmail.com"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", tr.cfg.Host)
	assert.Equal(t, 587, tr.cfg.Port)
	assert.Equal(t, "me@gmail.com", tr.cfg.From)
	assert.Equal(t, "smtp", tr.Name())
}

func TestSend(t *testing.T) {
	srv := startFakeServer(t, false, 0)
	tr := newTestTransport(t, srv, true)

	id, err := tr.Send(context.Background(), "legal@example.com, ops@example.com", "Results", "body text")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "@example.com"))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "bot@example.com", srv.from)
	assert.Equal(t, []string{"legal@example.com", "ops@example.com"}, srv.rcpts)
	assert.Contains(t, srv.data, "Subject: Results")
	assert.Contains(t, srv.data, "body text")
	assert.Contains(t, srv.data, "Message-ID: <"+id+">")
}

func TestSend_RequiresStartTLS(t *testing.T) {
	srv := startFakeServer(t, false, 0)
	tr := newTestTransport(t, srv, false)

	_, err := tr.Send(context.Background(), "legal@example.com", "s", "b")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
	assert.Contains(t, err.Error(), "STARTTLS")
}

func TestSend_PermanentRejection(t *testing.T) {
	srv := startFakeServer(t, false, 550)
	tr := newTestTransport(t, srv, true)

	_, err := tr.Send(context.Background(), "nobody@example.com", "s", "b")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestSend_TransientRejection(t *testing.T) {
	srv := startFakeServer(t, false, 451)
	tr := newTestTransport(t, srv, true)

	_, err := tr.Send(context.Background(), "busy@example.com", "s", "b")

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestSend_InvalidRecipient(t *testing.T) {
	srv := startFakeServer(t, false, 0)
	tr := newTestTransport(t, srv, true)

	_, err := tr.Send(context.Background(), "not-an-address", "s", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSend_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tr, err := New(Config{Host: "127.0.0.1", Port: port, From: "a@b.c", AllowInsecure: true})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), "x@y.z", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial 127.0.0.1:"+strconv.Itoa(port))
	assert.True(t, domain.IsRetryable(err))
}
