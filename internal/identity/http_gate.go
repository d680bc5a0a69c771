package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultDistanceThreshold mirrors the matcher's own cut-off; a match at a
// greater distance is reported as unknown even if the service labeled it.
const DefaultDistanceThreshold = 0.6

// HTTPGate verifies images against a face-match service over HTTP.
type HTTPGate struct {
	url       string
	threshold float64
	client    *http.Client
}

// NewHTTPGate builds a gate for the given service URL. A non-positive
// threshold falls back to DefaultDistanceThreshold.
func NewHTTPGate(url string, threshold float64, timeout time.Duration) *HTTPGate {
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGate{
		url:       url,
		threshold: threshold,
		client:    &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Verify posts the image as multipart form data and maps the response.
func (g *HTTPGate) Verify(ctx context.Context, image []byte) (Match, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return Match{}, fmt.Errorf("building request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Match{}, fmt.Errorf("building request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Match{}, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, &body)
	if err != nil {
		return Match{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return Match{}, &Error{Code: CodeModelNotReady, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Match{}, &Error{Code: CodeModelNotReady, Message: err.Error()}
	}

	var vr verifyResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		return Match{}, &Error{Code: CodeModelNotReady,
			Message: fmt.Sprintf("unexpected response (%d)", resp.StatusCode)}
	}

	if vr.Error != nil {
		return Match{}, mapServiceError(vr.Error.Code, vr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return Match{}, &Error{Code: CodeModelNotReady,
			Message: fmt.Sprintf("service returned %d", resp.StatusCode)}
	}

	m := Match{Label: vr.Label, Distance: vr.Distance}
	if m.Label == "" || m.Distance > g.threshold {
		m.Label = LabelUnknown
	}
	return m, nil
}

func mapServiceError(code, msg string) *Error {
	switch Code(code) {
	case CodeNoFaceDetected, CodeModelNotReady, CodeNoReferenceData:
		return &Error{Code: Code(code), Message: msg}
	default:
		return &Error{Code: CodeModelNotReady, Message: msg}
	}
}
