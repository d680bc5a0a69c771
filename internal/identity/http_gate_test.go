package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func gateFor(t *testing.T, handler http.HandlerFunc) *HTTPGate {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPGate(srv.URL, 0.6, time.Second)
}

func TestVerifyRecognized(t *testing.T) {
	g := gateFor(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart request: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"label": "Pranay", "distance": 0.31})
	})

	m, err := g.Verify(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if m.Label != "Pranay" || !m.Recognized() {
		t.Errorf("match = %+v, want recognized Pranay", m)
	}
}

func TestVerifyDistanceOverThresholdIsUnknown(t *testing.T) {
	g := gateFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"label": "Pranay", "distance": 0.73})
	})

	m, err := g.Verify(context.Background(), nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if m.Label != LabelUnknown || m.Recognized() {
		t.Errorf("match = %+v, want unknown", m)
	}
}

func TestVerifyServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   Code
	}{
		{"no face", 422, map[string]any{"error": map[string]string{"code": "NO_FACE_DETECTED"}}, CodeNoFaceDetected},
		{"model not ready", 503, map[string]any{"error": map[string]string{"code": "MODEL_NOT_READY"}}, CodeModelNotReady},
		{"no references", 422, map[string]any{"error": map[string]string{"code": "NO_REFERENCE_DATA"}}, CodeNoReferenceData},
		{"unknown code folds to model", 500, map[string]any{"error": map[string]string{"code": "EXPLODED"}}, CodeModelNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gateFor(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			})
			_, err := g.Verify(context.Background(), nil)
			ve, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ve.Code != tt.want {
				t.Errorf("code = %s, want %s", ve.Code, tt.want)
			}
		})
	}
}

func TestVerifyUnreachableService(t *testing.T) {
	g := NewHTTPGate("http://127.0.0.1:1", 0, 200*time.Millisecond)
	_, err := g.Verify(context.Background(), nil)
	ve, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ve.Code != CodeModelNotReady {
		t.Errorf("code = %s, want %s", ve.Code, CodeModelNotReady)
	}
}
