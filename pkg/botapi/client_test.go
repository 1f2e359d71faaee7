package botapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestDoUnwrapsResult(t *testing.T) {
	var gotPath, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok": true, "result": {"id": 99, "first_name": "flow", "is_bot": true}}`))
	}))
	defer server.Close()

	client := NewClient("token", server.URL, nil)
	result, err := client.Do(context.Background(), Call{Method: "getMe", Params: Params{"probe": 1}})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}

	if gotPath != "/getMe" {
		t.Fatalf("path = %q, want /getMe", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q, want application/json", gotContentType)
	}
	if result.Get("first_name").String() != "flow" {
		t.Fatalf("first_name = %q, want flow", result.Get("first_name").String())
	}
	if !result.Get("is_bot").Bool() {
		t.Fatal("is_bot = false, want true")
	}
	if result.Get("no_such_field").Exists() {
		t.Fatal("missing field must report not-present")
	}
}

func TestDoRemoteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client := NewClient("token", server.URL, nil)
	_, err := client.Do(context.Background(), Call{Method: "sendMessage", Params: Params{"chat_id": 1}})
	if err == nil {
		t.Fatal("expected remote API error")
	}
	if CategoryFromError(err) != ErrorRemoteAPI {
		t.Fatalf("category = %q, want %q", CategoryFromError(err), ErrorRemoteAPI)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T is not *Error", err)
	}
	if apiErr.Detail != "Bad Request: chat not found" {
		t.Fatalf("detail = %q, want exact description", apiErr.Detail)
	}
}

func TestDoRejectsInvalidURLParameter(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer probe.Close()

	var posts atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.Write([]byte(`{"ok": true, "result": {}}`))
	}))
	defer api.Close()

	client := NewClient("token", api.URL, nil)
	_, err := client.Do(context.Background(), Call{
		Method: "sendPhoto",
		Params: Params{"photo": probe.URL + "/x.png"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if CategoryFromError(err) != ErrorInvalidRemoteResource {
		t.Fatalf("category = %q, want %q", CategoryFromError(err), ErrorInvalidRemoteResource)
	}
	if posts.Load() != 0 {
		t.Fatalf("RPC endpoint saw %d requests, want 0", posts.Load())
	}
}

func TestDoAcceptsValidatedURLParameter(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer probe.Close()

	var posts atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.Write([]byte(`{"ok": true, "result": {"message_id": 1}}`))
	}))
	defer api.Close()

	client := NewClient("token", api.URL, nil)
	result, err := client.Do(context.Background(), Call{
		Method: "sendPhoto",
		Params: Params{"photo": probe.URL + "/x.png", "chat_id": 7},
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if posts.Load() != 1 {
		t.Fatalf("RPC endpoint saw %d requests, want 1", posts.Load())
	}
	if result.Get("message_id").Int() != 1 {
		t.Fatalf("message_id = %d, want 1", result.Get("message_id").Int())
	}
}

func TestDoRejectsInvalidURLAttachment(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer probe.Close()

	var posts atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer api.Close()

	client := NewClient("token", api.URL, nil)
	_, err := client.Do(context.Background(), Call{
		Method:      "sendDocument",
		Attachments: Attachments{"document": FileURL(probe.URL + "/page")},
	})
	if CategoryFromError(err) != ErrorInvalidRemoteResource {
		t.Fatalf("category = %q, want %q", CategoryFromError(err), ErrorInvalidRemoteResource)
	}
	if posts.Load() != 0 {
		t.Fatalf("RPC endpoint saw %d requests, want 0", posts.Load())
	}
}

func TestDoMissingAttachmentIssuesNoRequest(t *testing.T) {
	var posts atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer api.Close()

	client := NewClient("token", api.URL, nil)
	_, err := client.Do(context.Background(), Call{
		Method:      "sendDocument",
		Attachments: Attachments{"document": FilePath(filepath.Join(t.TempDir(), "missing.bin"))},
	})
	if CategoryFromError(err) != ErrorAttachmentNotFound {
		t.Fatalf("category = %q, want %q", CategoryFromError(err), ErrorAttachmentNotFound)
	}
	if posts.Load() != 0 {
		t.Fatalf("RPC endpoint saw %d requests, want 0", posts.Load())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient("token", "http://127.0.0.1:0", nil)
	client.Close()
	client.Close()
}
