package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// capture redirects the default logger into a buffer and restores the
// normal configuration when the test ends.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
		SetRedactSecrets(true)
	})
	return buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	if last == "" {
		t.Fatal("no log output")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(last), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\nline: %s", err, last)
	}
	return entry
}

func TestInfoEmitsStructuredJSON(t *testing.T) {
	buf := capture(t)

	Info("gateway connected", "chats", 2, "limit", 50)

	entry := lastEntry(t, buf)
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["msg"] != "gateway connected" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["chats"] != "2" {
		t.Errorf("chats = %v, want \"2\"", entry["chats"])
	}
	if entry["limit"] != "50" {
		t.Errorf("limit = %v, want \"50\"", entry["limit"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no time field")
	}
}

func TestLevelGating(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Debug("noise")
	Info("still noise")
	if buf.Len() != 0 {
		t.Fatalf("below-level entries were emitted: %s", buf.String())
	}

	Warn("watermark held back", "chat_id", -100)
	entry := lastEntry(t, buf)
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}

	Error("flush failed")
	entry = lastEntry(t, buf)
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
}

func TestPhoneFieldIsRedacted(t *testing.T) {
	buf := capture(t)

	Info("session opened", "phone", "+5511998765432")

	entry := lastEntry(t, buf)
	got, _ := entry["phone"].(string)
	if got != "+55*********32" {
		t.Errorf("phone = %q, want %q", got, "+55*********32")
	}
	if strings.Contains(buf.String(), "998765") {
		t.Error("raw phone digits leaked into output")
	}
}

func TestCredentialFieldsAreRedacted(t *testing.T) {
	buf := capture(t)

	Info("client configured",
		"api_key", "sk-proj-abcdef123456",
		"api_hash", "0123456789abcdef",
		"gateway_token", "tok_9f8e7d6c",
		"db_password", "hunter22",
	)

	entry := lastEntry(t, buf)
	for key, want := range map[string]string{
		"api_key":       "sk-p***",
		"api_hash":      "0123***",
		"gateway_token": "tok_***",
		"db_password":   "hunt***",
	} {
		if got, _ := entry[key].(string); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestRedactionCanBeDisabled(t *testing.T) {
	buf := capture(t)
	SetRedactSecrets(false)

	Info("debug dump", "phone", "+5511998765432")

	entry := lastEntry(t, buf)
	if got, _ := entry["phone"].(string); got != "+5511998765432" {
		t.Errorf("phone = %q, want raw value with redaction off", got)
	}
}

func TestDanglingFieldIgnored(t *testing.T) {
	buf := capture(t)

	Info("odd fields", "orphan")

	entry := lastEntry(t, buf)
	if _, ok := entry["orphan"]; ok {
		t.Error("dangling key should be dropped, not emitted")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{" Info ", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"", INFO},
		{"bogus", INFO},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRedactPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+5511998765432", "+55*********32"},
		{"11998765432", "11*******32"},
		{"  +5511998765432  ", "+55*********32"},
		{"12345", "***"},
		{"", "***"},
	}
	for _, c := range cases {
		if got := RedactPhone(c.in); got != c.want {
			t.Errorf("RedactPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRedactSecret(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sk-proj-abc123", "sk-p***"},
		{"abcd", "***"},
		{"", "***"},
	}
	for _, c := range cases {
		if got := RedactSecret(c.in); got != c.want {
			t.Errorf("RedactSecret(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
