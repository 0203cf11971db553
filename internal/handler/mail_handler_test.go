package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agentceo/internal/model"
	"agentceo/pkg/mailauth"
)

func TestMailStatusRefreshesExpiredToken(t *testing.T) {
	db := setupHandlerTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"provider":"google","email":"me@example.com","access_token":"fresh-token","expires_in":3600}`))
	}))
	defer server.Close()
	InitMailHandler(mailauth.NewClient(server.URL, time.Second))

	expired := time.Now().Add(-time.Hour)
	provider := model.EmailProvider{
		Provider:     "google",
		Email:        "me@example.com",
		AccessToken:  "stale-token",
		RefreshToken: "refresh-me",
		ExpiresAt:    &expired,
		UserID:       10,
		WorkspaceID:  1,
	}
	if err := db.Create(&provider).Error; err != nil {
		t.Fatalf("failed to seed provider: %v", err)
	}

	c, rec := authedRequest(t, http.MethodGet, "/mail/status", "", 1, 10)

	if err := MailStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["connected"] != true {
		t.Errorf("expected connected, got %v", body["connected"])
	}
	if body["expired"] != false {
		t.Errorf("expected refreshed token to clear expiry, got %v", body["expired"])
	}

	var reloaded model.EmailProvider
	if err := db.First(&reloaded, provider.ID).Error; err != nil {
		t.Fatalf("failed to reload provider: %v", err)
	}
	if reloaded.AccessToken != "fresh-token" {
		t.Errorf("expected stored access token replaced, got %q", reloaded.AccessToken)
	}
	if reloaded.IsExpired() {
		t.Error("expected stored expiry pushed forward")
	}
}

func TestMailStatusSurvivesRefreshFailure(t *testing.T) {
	db := setupHandlerTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"refresh token revoked"}`))
	}))
	defer server.Close()
	InitMailHandler(mailauth.NewClient(server.URL, time.Second))

	expired := time.Now().Add(-time.Hour)
	provider := model.EmailProvider{
		Provider:     "google",
		Email:        "me@example.com",
		AccessToken:  "stale-token",
		RefreshToken: "refresh-me",
		ExpiresAt:    &expired,
		UserID:       10,
		WorkspaceID:  1,
	}
	if err := db.Create(&provider).Error; err != nil {
		t.Fatalf("failed to seed provider: %v", err)
	}

	c, rec := authedRequest(t, http.MethodGet, "/mail/status", "", 1, 10)

	if err := MailStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status must never error, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["connected"] != true {
		t.Errorf("expected still connected, got %v", body["connected"])
	}
	if body["expired"] != true {
		t.Errorf("expected expiry reported after failed refresh, got %v", body["expired"])
	}
}

func TestMailStatusDisconnected(t *testing.T) {
	setupHandlerTest(t)

	c, rec := authedRequest(t, http.MethodGet, "/mail/status", "", 1, 10)

	if err := MailStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeBody(t, rec)["connected"] != false {
		t.Error("expected disconnected status")
	}
}
