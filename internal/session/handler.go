package session

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend-backend/internal/geo"
	"geoattend-backend/internal/location"
	"geoattend-backend/internal/platform/auth"
)

// maxImageBytes caps uploaded check-in captures.
const maxImageBytes = 8 << 20

type Handler struct{ hub *Hub }

func RegisterRoutes(r gin.IRoutes, hub *Hub) {
	h := &Handler{hub: hub}

	// 1. Session state
	// GET /session
	r.GET("/session", h.GetState)
	// GET /session/records (ledger, chronological)
	r.GET("/session/records", h.ListRecords)

	// 2. Location updates pushed by the client
	// POST /session/location
	r.POST("/session/location", h.UpdateLocation)

	// 3. Check-in / check-out
	// POST /session/checkin (multipart capture; runs the identity gate)
	r.POST("/session/checkin", h.CheckIn)
	// POST /session/checkin/cancel
	r.POST("/session/checkin/cancel", h.CancelCheckIn)
	// POST /session/checkout (manual)
	r.POST("/session/checkout", h.CheckOut)
}

func (h *Handler) controller(c *gin.Context) (*Controller, bool) {
	userID := c.GetString(auth.CtxUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, errorBody(ErrCodeInvalidArgument, "missing user identity"))
		return nil, false
	}
	return h.hub.Get(userID), true
}

// ---------- handlers ----------

func (h *Handler) GetState(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (h *Handler) ListRecords(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": ctrl.Records()})
}

type locationUpdateRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	// ObservedAt is when the client's position API produced the fix.
	// Omitted means just now.
	ObservedAt *time.Time `json:"observed_at,omitempty"`
	// Error carries a location.Code when the client could not get a fix.
	Error string `json:"error,omitempty"`
}

// POST /session/location
func (h *Handler) UpdateLocation(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req locationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "invalid json"))
		return
	}

	if req.Error != "" {
		if !location.ValidCode(req.Error) {
			c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "unknown location error code"))
			return
		}
		ctrl.LocationFailed(&location.Error{Code: location.Code(req.Error)})
		c.JSON(http.StatusOK, ctrl.State())
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "latitude and longitude are required"))
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "coordinates out of range"))
		return
	}

	// A stale self-reported fix must not drive a geofence decision.
	if req.ObservedAt != nil &&
		!location.FreshEnough(*req.ObservedAt, ctrl.cfg.Clock.Now(), ctrl.cfg.LocationMaxAge) {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "location fix is stale"))
		return
	}

	ctrl.UpdateLocation(geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
	c.JSON(http.StatusOK, ctrl.State())
}

// POST /session/checkin
//
// The verification call runs between BeginCheckIn and CompleteVerification
// without holding the controller, so location updates keep flowing while
// the gate works; CompleteVerification re-checks the zone precondition.
func (h *Handler) CheckIn(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	image, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "image upload is required"))
		return
	}

	if _, err := ctrl.BeginCheckIn(); err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	match, err := ctrl.Verifier().Verify(c.Request.Context(), image)
	if err != nil {
		// Verification failures keep the session pending for a retry.
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	rec, err := ctrl.CompleteVerification(match)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": rec, "state": ctrl.State()})
}

// POST /session/checkin/cancel
func (h *Handler) CancelCheckIn(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if !ctrl.CancelVerification() {
		c.JSON(http.StatusConflict, errorBody(ErrCodeNoPendingVerification, "no verification is pending"))
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

// POST /session/checkout
func (h *Handler) CheckOut(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	rec, err := ctrl.CheckOut()
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec, "state": ctrl.State()})
}

// ---------- helpers ----------

func readImage(c *gin.Context) ([]byte, error) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxImageBytes))
}

type errorDTO struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	return errorBody(ErrorCode(err), err.Error())
}
