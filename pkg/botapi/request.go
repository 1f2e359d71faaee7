package botapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"sort"
)

const jsonContentType = "application/json"

// buildRequestBody encodes a call into a wire-ready body. With no attachments
// the parameters become a single JSON object (or no body at all when empty);
// with attachments the call becomes a multipart form. A nil reader means the
// request carries no body.
func buildRequestBody(call Call) (io.Reader, string, error) {
	if len(call.Attachments) == 0 {
		return buildJSONBody(call.Params)
	}

	return buildMultipartBody(call)
}

func buildJSONBody(params Params) (io.Reader, string, error) {
	fields := make(map[string]any, len(params))
	for name, value := range params {
		if value == nil {
			continue
		}
		fields[name] = value
	}

	if len(fields) == 0 {
		return nil, "", nil
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, "", fmt.Errorf("encode request parameters: %w", err)
	}

	return bytes.NewReader(encoded), jsonContentType, nil
}

func buildMultipartBody(call Call) (io.Reader, string, error) {
	buffer := &bytes.Buffer{}
	form := multipart.NewWriter(buffer)

	for _, name := range call.Params.sortedKeys() {
		value := call.Params[name]
		if value == nil {
			continue
		}

		text, err := stringify(value)
		if err != nil {
			return nil, "", err
		}
		if err := form.WriteField(name, text); err != nil {
			return nil, "", fmt.Errorf("write form field %q: %w", name, err)
		}
	}

	names := make([]string, 0, len(call.Attachments))
	for name := range call.Attachments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writeAttachment(form, name, call.Attachments[name]); err != nil {
			return nil, "", err
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart form: %w", err)
	}

	return buffer, form.FormDataContentType(), nil
}

func writeAttachment(form *multipart.Writer, name string, attachment Attachment) error {
	if attachment.isURL() {
		if err := form.WriteField(name, attachment.url); err != nil {
			return fmt.Errorf("write url field %q: %w", name, err)
		}

		return nil
	}

	if attachment.path != "" {
		return copyLocalFile(form, name, attachment)
	}

	part, err := form.CreateFormFile(name, attachment.filename())
	if err != nil {
		return fmt.Errorf("create form file %q: %w", name, err)
	}
	if _, err := part.Write(attachment.data); err != nil {
		return fmt.Errorf("write form file %q: %w", name, err)
	}

	return nil
}

// copyLocalFile streams one local file into the form and closes it before
// returning, success or not.
func copyLocalFile(form *multipart.Writer, name string, attachment Attachment) error {
	file, err := os.Open(attachment.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewError(ErrorAttachmentNotFound, fmt.Sprintf("attachment %q: no such file %q", name, attachment.path))
		}

		return fmt.Errorf("open attachment %q: %w", name, err)
	}
	defer file.Close()

	part, err := form.CreateFormFile(name, attachment.filename())
	if err != nil {
		return fmt.Errorf("create form file %q: %w", name, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read attachment %q: %w", name, err)
	}

	return nil
}
