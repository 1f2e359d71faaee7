package botapi

import (
	"path/filepath"
	"strings"
)

// Attachment is one file-like value attached to a call. Exactly one source is
// set: inline bytes with an explicit name, a local file path, or a remote URL
// that the API fetches itself.
type Attachment struct {
	data []byte
	name string
	path string
	url  string
}

// Attachments maps form-field names to attachment sources.
type Attachments map[string]Attachment

// FileBytes attaches in-memory content under the given filename.
func FileBytes(name string, data []byte) Attachment {
	return Attachment{data: data, name: name}
}

// FilePath attaches a local file; the form filename is the path's base name.
func FilePath(path string) Attachment {
	return Attachment{path: path}
}

// FileURL attaches a remote URL. The URL string itself is forwarded as the
// field value; fetching is delegated to the remote API.
func FileURL(url string) Attachment {
	return Attachment{url: url}
}

func (a Attachment) isURL() bool {
	return a.url != ""
}

// filename derives the form filename: explicit name for inline bytes, base
// name for local paths.
func (a Attachment) filename() string {
	if a.name != "" {
		return a.name
	}
	if a.path != "" {
		return filepath.Base(a.path)
	}

	return ""
}

// isRemoteURL reports whether a string parameter value looks like a URL that
// must pass the remote-resource probe before the call is sent.
func isRemoteURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
