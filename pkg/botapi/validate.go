package botapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// acceptedContentTypes are the content-type prefixes a probed remote resource
// may report. Comparison is case-insensitive.
var acceptedContentTypes = []string{
	"audio/",
	"application/pdf",
	"image/",
	"video/",
	"application/octet-stream",
}

// ProbeURL checks that a remote URL resolves to an acceptable resource: a
// metadata-only HEAD request (redirects followed) must answer 200 with an
// accepted content type. Every failure, transport-level included, yields
// false; failures are logged at debug level, never returned.
func (c *Client) ProbeURL(ctx context.Context, url string) bool {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		c.log.Debug("Rejecting unparseable URL", "url", url, "error", err)
		return false
	}

	response, err := c.httpClient().Do(request)
	if err != nil {
		c.log.Debug("URL probe failed", "url", url, "error", err)
		return false
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		c.log.Debug("URL probe rejected", "url", url, "status", response.StatusCode)
		return false
	}

	contentType := strings.ToLower(strings.TrimSpace(response.Header.Get("Content-Type")))
	for _, accepted := range acceptedContentTypes {
		if strings.HasPrefix(contentType, accepted) {
			return true
		}
	}

	c.log.Debug("URL probe rejected", "url", url, "content_type", contentType)

	return false
}

// validateCall probes every URL-shaped string parameter and every URL
// attachment before the call is sent. The first rejection aborts the call.
func (c *Client) validateCall(ctx context.Context, call Call) error {
	for _, name := range call.Params.sortedKeys() {
		value, ok := call.Params[name].(string)
		if !ok || !isRemoteURL(value) {
			continue
		}
		if !c.ProbeURL(ctx, value) {
			return NewError(ErrorInvalidRemoteResource, fmt.Sprintf("parameter %q: unacceptable remote resource %q", name, value))
		}
	}

	for name, attachment := range call.Attachments {
		if !attachment.isURL() {
			continue
		}
		if !c.ProbeURL(ctx, attachment.url) {
			return NewError(ErrorInvalidRemoteResource, fmt.Sprintf("attachment %q: unacceptable remote resource %q", name, attachment.url))
		}
	}

	return nil
}
