package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/plantcare/internal/config"
)

func TestSendText(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/555/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.1"}]}`)
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "555", BaseURL: srv.URL, APIVersion: "v20.0"})
	id, err := client.SendText(context.Background(), "821012345678", "Time to water: Fern")
	if err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if id != "wamid.1" {
		t.Errorf("id = %q", id)
	}
	if payload["to"] != "821012345678" || payload["type"] != "text" {
		t.Errorf("unexpected payload %v", payload)
	}
	text, _ := payload["text"].(map[string]any)
	if text["body"] != "Time to water: Fern" {
		t.Errorf("body = %v", text["body"])
	}
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`)
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "555", BaseURL: srv.URL, APIVersion: "v20.0"})
	_, err := client.SendText(context.Background(), "1", "hi")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != 100 || apiErr.Message != "Invalid parameter" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestSendTextDisabled(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{BaseURL: "http://localhost", APIVersion: "v20.0"})
	if _, err := client.SendText(context.Background(), "1", "hi"); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}
