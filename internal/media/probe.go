// Package media validates remote media references and serves local media files.
package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// acceptedPrefixes are the content-type prefixes a media URL must report.
var acceptedPrefixes = []string{"image", "audio"}

// Outcome is the result of probing one media URL. A non-empty Reason means
// the URL was rejected and must not be attached.
type Outcome struct {
	URL         string
	ContentType string
	Status      int
	Reason      string
}

// Accepted reports whether the probed URL may be attached.
func (o Outcome) Accepted() bool {
	return o.Reason == ""
}

// Prober issues HEAD requests to check that a media URL is reachable and
// serves an image or audio resource.
type Prober struct {
	client *http.Client
}

// NewProber returns a Prober whose requests give up after timeout.
func NewProber(timeout time.Duration) *Prober {
	return &Prober{client: &http.Client{Timeout: timeout}}
}

// NewProberWithClient returns a Prober using client as is.
func NewProberWithClient(client *http.Client) *Prober {
	return &Prober{client: client}
}

// Probe checks rawURL. It never returns an error: every failure, including
// timeouts and connection errors, is reported through Outcome.Reason.
func (p *Prober) Probe(ctx context.Context, rawURL string) Outcome {
	out := Outcome{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		out.Reason = fmt.Sprintf("invalid media URL: %v", err)
		return out
	}
	resp, err := p.client.Do(req)
	if err != nil {
		out.Reason = fmt.Sprintf("media request failed: %v", err)
		return out
	}
	resp.Body.Close()

	out.Status = resp.StatusCode
	out.ContentType = resp.Header.Get("Content-Type")

	if resp.StatusCode >= http.StatusBadRequest {
		out.Reason = fmt.Sprintf("media URL answered %d", resp.StatusCode)
		return out
	}
	if !acceptableType(out.ContentType) {
		out.Reason = fmt.Sprintf("content type %q inacceptable for media", out.ContentType)
	}
	return out
}

func acceptableType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, prefix := range acceptedPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}
