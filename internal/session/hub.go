package session

import (
	"sync"

	"geoattend-backend/internal/identity"
	"geoattend-backend/internal/zone"
)

// Hub hands out one Controller per user. Controllers are created on first
// touch and live until the process exits; session state is in-memory only.
type Hub struct {
	mu       sync.Mutex
	registry *zone.Registry
	verifier identity.Verifier
	cfg      Config

	sessions map[string]*Controller
}

// NewHub builds a hub whose controllers share the registry, the identity
// gate and the policy config.
func NewHub(reg *zone.Registry, verifier identity.Verifier, cfg Config) *Hub {
	return &Hub{
		registry: reg,
		verifier: verifier,
		cfg:      cfg,
		sessions: make(map[string]*Controller),
	}
}

// Get returns the controller for the given user, creating it if needed.
func (h *Hub) Get(userID string) *Controller {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.sessions[userID]; ok {
		return c
	}
	c := NewController(h.registry, h.verifier, h.cfg)
	h.sessions[userID] = c
	return c
}

// Drop discards a user's session, ending it without records surviving.
func (h *Hub) Drop(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.sessions[userID]; ok {
		c.End()
		delete(h.sessions, userID)
	}
}
