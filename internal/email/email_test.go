package email

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := buildMessage("bot@decision.test", "Decision AI", []string{"a@x.test", "b@x.test"}, "Run done", "line1\nline2", now)

	for _, want := range []string{
		"From: Decision AI <bot@decision.test>\r\n",
		"To: a@x.test, b@x.test\r\n",
		"Subject: Run done\r\n",
		"Date: Sat, 01 Mar 2025 12:00:00 +0000\r\n",
		"\r\n\r\nline1\r\nline2",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestNewSMTPSender_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 0, "", "", "bot@decision.test", "", false); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewSMTPSender("smtp.decision.test", 0, "", "", " ", "", false); err == nil {
		t.Fatalf("expected error without from")
	}
	s, err := NewSMTPSender("smtp.decision.test", 0, "", "", "bot@decision.test", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestSMTPSender_RequiresRecipients(t *testing.T) {
	s, err := NewSMTPSender("smtp.decision.test", 25, "", "", "bot@decision.test", "", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if err := s.Send(context.Background(), Message{To: []string{" ", ""}, Subject: "x"}); err == nil {
		t.Fatalf("expected error without recipients")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").Send(context.Background(), Message{To: []string{"a@x.test"}})
	if err == nil || err.Error() != "smtp not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}

// fakeSMTP atiende una sola conexión; con silent acepta y nunca responde.
func fakeSMTP(t *testing.T, silent bool) (string, int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		if silent {
			_, _ = r.ReadString(0)
			return
		}
		reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }
		reply("220 fake ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 end with <CRLF>.<CRLF>")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				data <- body.String()
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 unknown")
			}
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port, data
}

func TestSMTPSender_SendPlain(t *testing.T) {
	host, port, data := fakeSMTP(t, false)
	s, err := NewSMTPSender(host, port, "", "", "bot@decision.test", "Decision AI", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Send(ctx, Message{To: []string{"a@x.test", "b@x.test"}, Subject: "Run done", Body: "f1 0.7"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case body := <-data:
		if !strings.Contains(body, "Subject: Run done\r\n") || !strings.Contains(body, "f1 0.7") {
			t.Fatalf("unexpected message:\n%s", body)
		}
	case <-time.After(time.Second):
		t.Fatalf("server did not receive the message")
	}
}

func TestSMTPSender_PlainHonorsDeadline(t *testing.T) {
	host, port, _ := fakeSMTP(t, true)
	s, err := NewSMTPSender(host, port, "", "", "bot@decision.test", "", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := s.Send(ctx, Message{To: []string{"a@x.test"}, Subject: "x"}); err == nil {
		t.Fatalf("expected error from a server that never answers")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("send ignored the context deadline, took %v", elapsed)
	}
}
