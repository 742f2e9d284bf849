package notification

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	appnotification "github.com/assetflow/backend/internal/application/notification"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRelay is a minimal SMTP server that accepts everything except, when
// told to, recipients.
type fakeRelay struct {
	ln         net.Listener
	rejectRcpt bool

	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
}

func newFakeRelay(t *testing.T, rejectRcpt bool) *fakeRelay {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &fakeRelay{ln: ln, rejectRcpt: rejectRcpt}
	go r.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return r
}

func (r *fakeRelay) port() int {
	return r.ln.Addr().(*net.TCPAddr).Port
}

func (r *fakeRelay) config() config.NotificationConfig {
	return config.NotificationConfig{
		Transport:   "smtp",
		FromAddress: "no-reply@example.com",
		SMTPHost:    "127.0.0.1",
		SMTPPort:    r.port(),
		SMTPTLS:     "none",
	}
}

func (r *fakeRelay) serve() {
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		go r.handle(conn)
	}
}

func (r *fakeRelay) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 relay.test ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(verb, "EHLO"), strings.HasPrefix(verb, "HELO"):
			_ = tp.PrintfLine("250 relay.test")
		case strings.HasPrefix(verb, "MAIL FROM:"):
			r.mu.Lock()
			r.from = line[len("MAIL FROM:"):]
			r.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(verb, "RCPT TO:"):
			if r.rejectRcpt {
				_ = tp.PrintfLine("550 mailbox unavailable")
				continue
			}
			r.mu.Lock()
			r.rcpts = append(r.rcpts, line[len("RCPT TO:"):])
			r.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case verb == "DATA":
			_ = tp.PrintfLine("354 end data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			r.mu.Lock()
			r.data = string(body)
			r.mu.Unlock()
			_ = tp.PrintfLine("250 queued")
		case verb == "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

func (r *fakeRelay) received() (string, []string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.from, append([]string(nil), r.rcpts...), r.data
}

func TestSMTPNotifier_Send(t *testing.T) {
	relay := newFakeRelay(t, false)
	n, err := NewSMTPNotifier(relay.config())
	require.NoError(t, err)

	err = n.Send(context.Background(), appnotification.Message{
		To:      []string{"mona@example.com", "alice@example.com"},
		Subject: "Overdue products",
		Body:    "Please return the oscilloscope",
	})
	require.NoError(t, err)

	from, rcpts, data := relay.received()
	assert.Contains(t, from, "no-reply@example.com")
	require.Len(t, rcpts, 2)
	assert.Contains(t, rcpts[0], "mona@example.com")
	assert.Contains(t, rcpts[1], "alice@example.com")
	assert.Contains(t, data, "Subject: Overdue products")
	assert.Contains(t, data, "Please return the oscilloscope")

	t.Run("no recipients sends nothing", func(t *testing.T) {
		quiet := newFakeRelay(t, false)
		n, err := NewSMTPNotifier(quiet.config())
		require.NoError(t, err)

		require.NoError(t, n.Send(context.Background(), appnotification.Message{Subject: "nobody"}))
		_, rcpts, _ := quiet.received()
		assert.Empty(t, rcpts)
	})

	t.Run("refused recipient is an error", func(t *testing.T) {
		strict := newFakeRelay(t, true)
		n, err := NewSMTPNotifier(strict.config())
		require.NoError(t, err)

		err = n.Send(context.Background(), appnotification.Message{To: []string{"gone@example.com"}, Subject: "x"})
		assert.Error(t, err)
		_, _, data := strict.received()
		assert.Empty(t, data)
	})
}

func TestNewSMTPNotifier_Config(t *testing.T) {
	_, err := NewSMTPNotifier(config.NotificationConfig{SMTPPort: 25})
	assert.ErrorContains(t, err, "host")

	_, err = NewSMTPNotifier(config.NotificationConfig{SMTPHost: "mail.example.com", SMTPPort: 25, SMTPTLS: "sometimes"})
	assert.ErrorContains(t, err, "tls policy")

	n, err := New(config.NotificationConfig{Transport: "smtp", SMTPHost: "mail.example.com", SMTPPort: 587}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)

	_, err = New(config.NotificationConfig{Transport: "smtp"}, zap.NewNop())
	assert.Error(t, err)
}
