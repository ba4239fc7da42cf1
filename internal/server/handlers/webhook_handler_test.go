package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

type stubMessaging struct {
	handled int
	err     error
}

func (s *stubMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (s *stubMessaging) HandleWebhook(_ context.Context, _ models.WebhookPayload) error {
	s.handled++
	return s.err
}

func TestWebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubMessaging{}
	h := NewWebhookHandler(svc, nil)

	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "abc" {
		t.Errorf("verify = %d %q", rec.Code, rec.Body.String())
	}
	rec = serve(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad token = %d", rec.Code)
	}

	body := `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"messages":[{"from":"8210","type":"text","text":{"body":"/due"}}]}}]}]}`
	rec = serve(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	if rec.Code != http.StatusOK || svc.handled != 1 {
		t.Errorf("receive = %d handled=%d", rec.Code, svc.handled)
	}

	svc.err = errors.New("send failed")
	rec = serve(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Errorf("processing error should still be acknowledged, got %d", rec.Code)
	}

	rec = serve(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest || svc.handled != 2 {
		t.Errorf("malformed = %d handled=%d", rec.Code, svc.handled)
	}
}
