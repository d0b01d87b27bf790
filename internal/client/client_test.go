package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListTasksSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(TasksResponse{})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	if _, err := c.ListTasks(context.Background(), "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestDecodeAPIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"task line changed on disk"}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	_, err := c.UpdateTask(context.Background(), "notes", UpdateTaskRequest{
		FilePath:   "inbox.md",
		LineNumber: 3,
		State:      "x",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "task line changed on disk" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	c := NewWithBaseURL("http://127.0.0.1:0", "secret")
	if err := c.SendMessage(context.Background(), "s1", "   "); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestOpenSessionDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenSessionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Vault != "notes" {
			t.Errorf("unexpected vault in request: %q", req.Vault)
		}
		_ = json.NewEncoder(w).Encode(SessionResponse{SessionID: "s42", Vault: req.Vault})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "secret")
	session, err := c.OpenSession(context.Background(), "notes", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.SessionID != "s42" {
		t.Fatalf("unexpected session: %+v", session)
	}
}
