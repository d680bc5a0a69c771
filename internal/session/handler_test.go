package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend-backend/internal/identity"
	"geoattend-backend/internal/platform/auth"
)

type webHarness struct {
	router *gin.Engine
	clock  *fakeClock
	timers *FakeTimerFactory
	hub    *Hub
}

func newWebHarness(t *testing.T, v identity.Verifier) *webHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := &fakeClock{now: morning()}
	timers := &FakeTimerFactory{}
	hub := NewHub(testRegistry(t), v, Config{
		TZ:             time.UTC,
		LocationMaxAge: 30 * time.Second,
		Clock:          clock,
		IDs:            &seqIDs{},
		Timers:         timers,
	})

	r := gin.New()
	api := r.Group("", func(c *gin.Context) {
		c.Set(auth.CtxUserIDKey, "alice")
		c.Next()
	})
	RegisterRoutes(api, hub)

	return &webHarness{router: r, clock: clock, timers: timers, hub: hub}
}

func (h *webHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *webHarness) postImage(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "capture.jpg")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(part, "jpeg-bytes")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func postLocation(lat, lng float64) map[string]any {
	return map[string]any{"latitude": lat, "longitude": lng}
}

func TestLocationEndpointUpdatesState(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	w := h.do(t, http.MethodPost, "/session/location",
		postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var snap Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.ActiveZone == nil || snap.ActiveZone.Name != "Main Office" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestLocationEndpointValidation(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing fields", map[string]any{}},
		{"latitude range", postLocation(91, 0)},
		{"longitude range", postLocation(0, 181)},
		{"unknown error code", map[string]any{"error": "GPS_ON_FIRE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/session/location", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLocationEndpointRejectsStaleFix(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	body := postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude)
	body["observed_at"] = h.clock.now.Add(-time.Minute).Format(time.RFC3339)

	w := h.do(t, http.MethodPost, "/session/location", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a minute-old fix with 30s tolerance", w.Code)
	}

	body["observed_at"] = h.clock.now.Add(-10 * time.Second).Format(time.RFC3339)
	w = h.do(t, http.MethodPost, "/session/location", body)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a fresh fix", w.Code)
	}
}

func TestLocationEndpointErrorReport(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	w := h.do(t, http.MethodPost, "/session/location", map[string]any{"error": "TIMEOUT"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var snap Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.LocationError != "TIMEOUT" {
		t.Errorf("location error = %q", snap.LocationError)
	}
}

func TestCheckInEndToEnd(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	h.do(t, http.MethodPost, "/session/location",
		postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude))

	w := h.postImage(t, "/session/checkin")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"zone_name":"Main Office"`) {
		t.Errorf("body = %s", w.Body)
	}

	w = h.do(t, http.MethodGet, "/session/records", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"check-in"`) {
		t.Errorf("records = %d %s", w.Code, w.Body)
	}
}

func TestCheckInWithoutZoneConflicts(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	w := h.postImage(t, "/session/checkin")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 without an active zone", w.Code)
	}
}

func TestCheckInWithoutImageIsBadRequest(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))
	h.do(t, http.MethodPost, "/session/location",
		postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude))

	w := h.do(t, http.MethodPost, "/session/checkin", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCheckInVerificationFailureKeepsPending(t *testing.T) {
	v := &identity.FakeVerifier{Results: []identity.FakeResult{
		{Err: &identity.Error{Code: identity.CodeNoFaceDetected}},
		{Match: identity.Match{Label: "Pranay"}},
	}}
	h := newWebHarness(t, v)
	h.do(t, http.MethodPost, "/session/location",
		postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude))

	w := h.postImage(t, "/session/checkin")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for NO_FACE_DETECTED", w.Code)
	}

	// The session is still pending; a retry succeeds.
	var snap Snapshot
	state := h.do(t, http.MethodGet, "/session", nil)
	if err := json.Unmarshal(state.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if !snap.PendingVerification {
		t.Error("verification should still be pending after a gate failure")
	}

	w = h.postImage(t, "/session/checkin")
	if w.Code != http.StatusCreated {
		t.Errorf("retry status = %d, body %s", w.Code, w.Body)
	}
}

func TestCancelCheckIn(t *testing.T) {
	v := &identity.FakeVerifier{Results: []identity.FakeResult{
		{Err: &identity.Error{Code: identity.CodeModelNotReady}},
	}}
	h := newWebHarness(t, v)
	h.do(t, http.MethodPost, "/session/location",
		postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude))

	if w := h.postImage(t, "/session/checkin"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 for MODEL_NOT_READY", w.Code)
	}

	w := h.do(t, http.MethodPost, "/session/checkin/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}
	w = h.do(t, http.MethodPost, "/session/checkin/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", w.Code)
	}
}

func TestCheckOutEndpoint(t *testing.T) {
	h := newWebHarness(t, identity.Recognize("Pranay"))

	// Not checked in yet: precondition violation, reported not crashed.
	w := h.do(t, http.MethodPost, "/session/checkout", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	h.do(t, http.MethodPost, "/session/location",
		postLocation(mainOfficeCenter.Latitude, mainOfficeCenter.Longitude))
	if w := h.postImage(t, "/session/checkin"); w.Code != http.StatusCreated {
		t.Fatalf("checkin failed: %d %s", w.Code, w.Body)
	}

	w = h.do(t, http.MethodPost, "/session/checkout", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"manual-early"`) {
		t.Errorf("body = %s, want manual-early before the deadline", w.Body)
	}
}

func TestMissingUserIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(testRegistry(t), identity.Recognize("x"), Config{
		TZ: time.UTC, Clock: &fakeClock{now: morning()}, IDs: &seqIDs{}, Timers: &FakeTimerFactory{},
	})
	r := gin.New()
	RegisterRoutes(r, hub) // no auth middleware: no user in context

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
