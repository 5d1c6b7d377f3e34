package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgimm/journalmon/internal/config"
)

func testMailer(baseURL string) *Mailer {
	m := NewMailer(config.EmailConfig{
		APIKey: "re_test_key",
		From:   "journalmon <briefing@example.com>",
		To:     "kay@example.com",
	})
	m.BaseURL = baseURL
	return m
}

func TestSendReport(t *testing.T) {
	var got resendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test_key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"id": "email-123"}`)
	}))
	defer server.Close()

	markdown := "# 브리핑\n\n| 저널 | 제목 |\n|---|---|\n| Antipode | Paper |\n"
	err := testMailer(server.URL).SendReport(context.Background(), "학술저널 브리핑", markdown, "journal_brief_20260831.md")
	if err != nil {
		t.Fatalf("SendReport() error: %v", err)
	}

	if got.From == "" || len(got.To) != 1 || got.To[0] != "kay@example.com" {
		t.Errorf("recipients = %+v", got)
	}
	if got.Subject != "학술저널 브리핑" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "<h1") || !strings.Contains(got.HTML, "<table>") {
		t.Errorf("HTML body missing rendered markdown: %q", got.HTML)
	}

	if len(got.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(got.Attachments))
	}
	decoded, err := base64.StdEncoding.DecodeString(got.Attachments[0].Content)
	if err != nil {
		t.Fatalf("attachment not base64: %v", err)
	}
	if string(decoded) != markdown {
		t.Error("attachment content does not round-trip")
	}
	if got.Attachments[0].Filename != "journal_brief_20260831.md" {
		t.Errorf("attachment filename = %q", got.Attachments[0].Filename)
	}
}

func TestSendReport_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "invalid from address"}`)
	}))
	defer server.Close()

	err := testMailer(server.URL).SendReport(context.Background(), "subject", "# body", "a.md")
	if err == nil {
		t.Fatal("expected error from API failure")
	}
	if !strings.Contains(err.Error(), "invalid from address") {
		t.Errorf("error %q should carry the API message", err)
	}
}

func TestMarkdownToHTML_RendersTables(t *testing.T) {
	html, err := markdownToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("markdownToHTML() error: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("GFM tables not rendered: %q", html)
	}
}
