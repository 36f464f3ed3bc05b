package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmailClientConfigured(t *testing.T) {
	var nilClient *EmailClient
	if nilClient.Configured() {
		t.Error("nil client should not report configured")
	}
	if NewEmailClient("", "Casa", "casa@example.com").Configured() {
		t.Error("client without token should not report configured")
	}
	if !NewEmailClient("tok", "Casa", "casa@example.com").Configured() {
		t.Error("client with token should report configured")
	}
}

func TestEmailClientSend(t *testing.T) {
	var gotToken string
	var gotPayload emailPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewEmailClient("server-token", "Plan de Casa", "casa@example.com",
		WithAPIURL(srv.URL), WithHTTPClient(srv.Client()))

	err := client.Send(context.Background(), []string{"eva@example.com", "david@example.com"}, "Asunto", "<p>hola</p>")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotToken != "server-token" {
		t.Errorf("server token header = %q", gotToken)
	}
	if want := `"Plan de Casa" <casa@example.com>`; gotPayload.From != want {
		t.Errorf("From = %q, want %q", gotPayload.From, want)
	}
	if want := "eva@example.com,david@example.com"; gotPayload.To != want {
		t.Errorf("To = %q, want %q", gotPayload.To, want)
	}
	if gotPayload.Subject != "Asunto" || gotPayload.HtmlBody != "<p>hola</p>" {
		t.Errorf("payload = %+v", gotPayload)
	}
}

func TestEmailClientSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewEmailClient("tok", "Casa", "casa@example.com",
		WithAPIURL(srv.URL), WithHTTPClient(srv.Client()))

	err := client.Send(context.Background(), []string{"eva@example.com"}, "s", "b")
	if err == nil {
		t.Fatal("expected error on 422 response")
	}
	if !strings.Contains(err.Error(), "status 422") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestEmailClientSendUnconfigured(t *testing.T) {
	client := NewEmailClient("", "Casa", "casa@example.com")
	if err := client.Send(context.Background(), []string{"eva@example.com"}, "s", "b"); err == nil {
		t.Fatal("expected error without server token")
	}
}

func TestEmailClientSendNoRecipients(t *testing.T) {
	client := NewEmailClient("tok", "Casa", "casa@example.com")
	if err := client.Send(context.Background(), nil, "s", "b"); err == nil {
		t.Fatal("expected error without recipients")
	}
}
