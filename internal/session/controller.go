// Package session implements the attendance state machine: geofence
// membership tracking, verification-gated check-in, manual and automatic
// check-out, and the append-only ledger of attendance records.
package session

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"geoattend-backend/internal/geo"
	"geoattend-backend/internal/identity"
	"geoattend-backend/internal/location"
	"geoattend-backend/internal/zone"
)

// DefaultDeadlineHour is the local hour after which a standing check-in is
// closed automatically.
const DefaultDeadlineHour = 20

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Config carries the controller's policy knobs. Zero values select the
// production defaults.
type Config struct {
	// DeadlineHour is the local hour (0-23) of the daily auto-checkout.
	DeadlineHour int
	// TZ is the local time zone the deadline is computed in.
	TZ *time.Location
	// LocationMaxAge is the oldest self-reported fix the session API
	// accepts. Zero requires sources to deliver fresh fixes instead.
	LocationMaxAge time.Duration

	Clock  Clock
	IDs    IDGen
	Timers TimerFactory
}

func (c Config) withDefaults() Config {
	if c.DeadlineHour == 0 {
		c.DeadlineHour = DefaultDeadlineHour
	}
	if c.TZ == nil {
		c.TZ = time.Local
	}
	if c.Clock == nil {
		c.Clock = realClock{}
	}
	if c.IDs == nil {
		c.IDs = ulidGen{}
	}
	if c.Timers == nil {
		c.Timers = realTimerFactory{}
	}
	return c
}

// Controller owns one user's session state and funnels every mutation
// through its transition methods. A mutex serializes events so each
// transition runs to completion before the next is admitted; a failed
// transition leaves the state untouched.
type Controller struct {
	mu       sync.Mutex
	registry *zone.Registry
	verifier identity.Verifier
	cfg      Config

	current     *geo.Coordinate
	nearby      []geo.Zone
	active      *geo.Zone
	checkedIn   bool
	checkInZone *geo.Zone
	pending     bool

	earlyCheckouts int
	locationErr    *location.Error

	ledger   Ledger
	deadline Timer
}

// NewController builds a controller over the given zone registry and
// identity gate.
func NewController(reg *zone.Registry, verifier identity.Verifier, cfg Config) *Controller {
	return &Controller{
		registry: reg,
		verifier: verifier,
		cfg:      cfg.withDefaults(),
	}
}

// Verifier returns the identity gate the controller was built with.
func (c *Controller) Verifier() identity.Verifier { return c.verifier }

// UpdateLocation runs the location-update transition: recompute nearby
// zones, re-select the active zone (keeping the previous one while it
// still applies), and, while checked in, auto-check-out on zone exit.
func (c *Controller) UpdateLocation(coord geo.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = &coord
	c.locationErr = nil
	c.recomputeZones()
	c.autoCheckOutOnExit()
}

// LocationFailed records a classified position failure. Lost location is
// treated as having left every zone, so a standing check-in is closed the
// same way a geometric exit closes it.
func (c *Controller) LocationFailed(err *location.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.locationErr = err
	c.current = nil
	c.nearby = nil
	c.active = nil
	c.autoCheckOutOnExit()
}

// recomputeZones refreshes nearbyZones and activeZone from the current
// location. The previously active zone is kept while it still contains
// the user, so overlapping zones do not flap.
func (c *Controller) recomputeZones() {
	if c.current == nil {
		c.nearby = nil
		c.active = nil
		return
	}

	c.nearby = c.registry.Containing(*c.current)

	if c.active != nil {
		for i := range c.nearby {
			if c.nearby[i].ID == c.active.ID {
				c.active = &c.nearby[i]
				return
			}
		}
	}
	if len(c.nearby) > 0 {
		c.active = &c.nearby[0]
		return
	}
	c.active = nil
}

// autoCheckOutOnExit applies the zone-exit rule: while checked in, an
// absent location or a location outside the check-in zone closes the
// session immediately, with no verification step.
func (c *Controller) autoCheckOutOnExit() {
	if !c.checkedIn {
		return
	}
	if geo.IsWithin(c.current, *c.checkInZone) {
		return
	}
	c.checkOutLocked(AnnotationAutoExit)
}

// BeginCheckIn starts the verification-gated check-in and returns the
// active zone the verification runs against. Calling it again while a
// verification is already pending is a retry, not an error.
func (c *Controller) BeginCheckIn() (geo.Zone, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkedIn {
		return geo.Zone{}, NewAlreadyCheckedInError()
	}
	if c.active == nil {
		return geo.Zone{}, NewNoActiveZoneError()
	}
	c.pending = true
	return *c.active, nil
}

// CompleteVerification finishes a pending check-in with the gate's result.
// The active zone is re-read at completion time: if it was lost while the
// verification was in flight the result is discarded and no record is
// appended. An unrecognized face leaves the verification pending so the
// caller can retry.
func (c *Controller) CompleteVerification(m identity.Match) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending {
		return Record{}, NewNoPendingVerificationError()
	}
	if c.checkedIn {
		c.pending = false
		return Record{}, NewAlreadyCheckedInError()
	}
	if !m.Recognized() {
		return Record{}, NewUnrecognizedError()
	}
	if c.active == nil {
		c.pending = false
		return Record{}, NewVerificationAbortedError()
	}

	rec, err := c.newRecord(ActionCheckIn, c.active.Name, m.Label)
	if err != nil {
		return Record{}, err
	}

	z := *c.active
	c.ledger.Append(rec)
	c.checkedIn = true
	c.checkInZone = &z
	c.pending = false
	c.armDeadline()
	return rec, nil
}

// CancelVerification abandons a pending verification without side effects.
func (c *Controller) CancelVerification() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	was := c.pending
	c.pending = false
	return was
}

// CheckOut performs a manual check-out. Requesting it while not checked
// in violates the precondition and changes nothing.
func (c *Controller) CheckOut() (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checkedIn {
		return Record{}, NewNotCheckedInError()
	}

	annotation := AnnotationManual
	if c.beforeDeadline(c.cfg.Clock.Now()) {
		annotation = AnnotationManualEarly
	}
	return c.checkOutLocked(annotation)
}

// deadlineFired is the 20:00 timer callback. A check-out that already
// happened disarms it logically even if the race lets it run.
func (c *Controller) deadlineFired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checkedIn {
		return
	}
	c.checkOutLocked(AnnotationAutoDeadline)
}

// checkOutLocked performs the shared check-out transition. It must be
// called with the mutex held and checkedIn true.
func (c *Controller) checkOutLocked(annotation string) (Record, error) {
	rec, err := c.newRecord(ActionCheckOut, c.checkInZone.Name, annotation)
	if err != nil {
		return Record{}, err
	}

	c.ledger.Append(rec)
	c.checkedIn = false
	c.checkInZone = nil
	c.disarmDeadline()

	// The deadline transition is by definition not early; everything
	// else counts when it lands before the deadline.
	if annotation != AnnotationAutoDeadline && c.beforeDeadline(rec.Timestamp) {
		c.earlyCheckouts++
	}
	return rec, nil
}

func (c *Controller) newRecord(action Action, zoneName, annotation string) (Record, error) {
	id, err := c.cfg.IDs.New()
	if err != nil {
		return Record{}, &DomainError{Code: ErrCodeInternal, Message: err.Error()}
	}
	return Record{
		ID:         id,
		Timestamp:  c.cfg.Clock.Now(),
		Action:     action,
		ZoneName:   zoneName,
		Annotation: annotation,
	}, nil
}

func (c *Controller) beforeDeadline(t time.Time) bool {
	return t.In(c.cfg.TZ).Hour() < c.cfg.DeadlineHour
}

// armDeadline schedules the daily auto-checkout for today's deadline in
// the configured zone's local time. A deadline already in the past fires
// immediately.
func (c *Controller) armDeadline() {
	c.disarmDeadline()

	now := c.cfg.Clock.Now().In(c.cfg.TZ)
	at := time.Date(now.Year(), now.Month(), now.Day(), c.cfg.DeadlineHour, 0, 0, 0, c.cfg.TZ)
	c.deadline = c.cfg.Timers.AfterFunc(at.Sub(now), c.deadlineFired)
}

// disarmDeadline stops a pending deadline timer. Safe to call any number
// of times.
func (c *Controller) disarmDeadline() {
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
}

// End abandons any pending verification and disarms the deadline timer.
// The ledger is discarded with the controller; nothing is persisted.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = false
	c.disarmDeadline()
}

// Snapshot is a point-in-time view of the session, safe to use after the
// controller moves on.
type Snapshot struct {
	Location            *geo.Coordinate `json:"location,omitempty"`
	LocationError       string          `json:"location_error,omitempty"`
	NearbyZones         []geo.Zone      `json:"nearby_zones"`
	ActiveZone          *geo.Zone       `json:"active_zone,omitempty"`
	CheckedIn           bool            `json:"checked_in"`
	CheckInZone         *geo.Zone       `json:"check_in_zone,omitempty"`
	PendingVerification bool            `json:"pending_verification"`
	EarlyCheckouts      int             `json:"early_checkouts"`
	Records             int             `json:"records"`
}

// State returns a snapshot of the current session.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		NearbyZones:         append([]geo.Zone(nil), c.nearby...),
		CheckedIn:           c.checkedIn,
		PendingVerification: c.pending,
		EarlyCheckouts:      c.earlyCheckouts,
		Records:             c.ledger.Len(),
	}
	if c.current != nil {
		loc := *c.current
		snap.Location = &loc
	}
	if c.locationErr != nil {
		snap.LocationError = string(c.locationErr.Code)
	}
	if c.active != nil {
		z := *c.active
		snap.ActiveZone = &z
	}
	if c.checkInZone != nil {
		z := *c.checkInZone
		snap.CheckInZone = &z
	}
	return snap
}

// Records returns the ledger contents in chronological order.
func (c *Controller) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.All()
}
