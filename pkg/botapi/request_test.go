package botapi

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildJSONBody(t *testing.T) {
	body, contentType, err := buildRequestBody(Call{
		Method: "sendMessage",
		Params: Params{"chat_id": int64(42), "text": "hi", "reply_markup": nil},
	})
	if err != nil {
		t.Fatalf("buildRequestBody error: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("content type = %q, want application/json", contentType)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if fields["text"] != "hi" {
		t.Fatalf("text = %v, want hi", fields["text"])
	}
	if _, ok := fields["reply_markup"]; ok {
		t.Fatal("nil parameter must be omitted")
	}
}

func TestBuildJSONBodyEmpty(t *testing.T) {
	body, contentType, err := buildRequestBody(Call{Method: "getMe"})
	if err != nil {
		t.Fatalf("buildRequestBody error: %v", err)
	}
	if body != nil {
		t.Fatal("empty call must have no body")
	}
	if contentType != "" {
		t.Fatalf("content type = %q, want empty", contentType)
	}

	body, _, err = buildRequestBody(Call{Method: "getMe", Params: Params{"only": nil}})
	if err != nil {
		t.Fatalf("buildRequestBody error: %v", err)
	}
	if body != nil {
		t.Fatal("all-nil params must produce no body")
	}
}

func parseForm(t *testing.T, body io.Reader, contentType string) map[string][]string {
	t.Helper()

	_, mediaParams, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}

	reader := multipart.NewReader(body, mediaParams["boundary"])
	fields := make(map[string][]string)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read part: %v", err)
		}

		value, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("read part body: %v", err)
		}
		fields[part.FormName()] = []string{string(value), part.FileName()}
	}

	return fields
}

func TestBuildMultipartStringifiesParams(t *testing.T) {
	body, contentType, err := buildRequestBody(Call{
		Method: "sendPhoto",
		Params: Params{
			"chat_id":      int64(42),
			"silent":       true,
			"reply_markup": map[string]any{"keyboard": []any{}},
			"caption":      nil,
		},
		Attachments: Attachments{"photo": FileBytes("pic.png", []byte{1, 2, 3})},
	})
	if err != nil {
		t.Fatalf("buildRequestBody error: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("content type = %q, want multipart", contentType)
	}

	fields := parseForm(t, body, contentType)

	if got := fields["chat_id"][0]; got != "42" {
		t.Fatalf("chat_id = %q, want 42", got)
	}
	if got := fields["silent"][0]; got != "true" {
		t.Fatalf("silent = %q, want true", got)
	}
	if got := fields["reply_markup"][0]; got != `{"keyboard":[]}` {
		t.Fatalf("reply_markup = %q, want JSON text", got)
	}
	if _, ok := fields["caption"]; ok {
		t.Fatal("nil parameter must be omitted")
	}
	if got := fields["photo"]; got[0] != "\x01\x02\x03" || got[1] != "pic.png" {
		t.Fatalf("photo = %q filename %q", got[0], got[1])
	}
}

func TestBuildMultipartURLAttachment(t *testing.T) {
	body, contentType, err := buildRequestBody(Call{
		Method:      "sendDocument",
		Attachments: Attachments{"document": FileURL("https://example.com/x.pdf")},
	})
	if err != nil {
		t.Fatalf("buildRequestBody error: %v", err)
	}

	fields := parseForm(t, body, contentType)
	got := fields["document"]
	if got[0] != "https://example.com/x.pdf" {
		t.Fatalf("document = %q, want forwarded URL", got[0])
	}
	if got[1] != "" {
		t.Fatalf("URL attachment must not carry a filename, got %q", got[1])
	}
}

func TestBuildMultipartLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("contents"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	body, contentType, err := buildRequestBody(Call{
		Method:      "sendDocument",
		Attachments: Attachments{"document": FilePath(path)},
	})
	if err != nil {
		t.Fatalf("buildRequestBody error: %v", err)
	}

	fields := parseForm(t, body, contentType)
	got := fields["document"]
	if got[0] != "contents" {
		t.Fatalf("document body = %q", got[0])
	}
	if got[1] != "notes.txt" {
		t.Fatalf("document filename = %q, want notes.txt", got[1])
	}
}

func TestBuildMultipartMissingFile(t *testing.T) {
	_, _, err := buildRequestBody(Call{
		Method:      "sendDocument",
		Attachments: Attachments{"document": FilePath(filepath.Join(t.TempDir(), "missing.bin"))},
	})
	if err == nil {
		t.Fatal("expected error for missing attachment file")
	}
	if CategoryFromError(err) != ErrorAttachmentNotFound {
		t.Fatalf("category = %q, want %q", CategoryFromError(err), ErrorAttachmentNotFound)
	}
}
