// internal/adapters/in/http/handler/session_handler.go
package handler

import (
	"errors"
	"net/http"
	"strings"

	"atelier/internal/adapters/in/http/middleware"
	"atelier/internal/application/session"
	"atelier/internal/domain/identity"
)

// SessionHandler exposes the identity state machine: attaching the
// authenticated user, signup, role switching, and the session snapshot.
type SessionHandler struct {
	Session *session.Session
}

func NewSessionHandler(s *session.Session) *SessionHandler {
	return &SessionHandler{Session: s}
}

type sessionDTO struct {
	State      string   `json:"state"`
	UID        string   `json:"uid,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	ActiveRole string   `json:"activeRole,omitempty"`
	Onboarding string   `json:"onboarding,omitempty"`
}

func toSessionDTO(snap session.Snapshot) sessionDTO {
	return sessionDTO{
		State:      string(snap.State),
		UID:        snap.UID,
		Roles:      identity.RoleStrings(snap.Roles),
		ActiveRole: string(snap.ActiveRole),
		Onboarding: string(snap.Onboarding),
	}
}

// Get returns the current session snapshot.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionDTO(h.Session.Current()))
}

// Attach binds the verified Firebase identity to the session. This is the
// authentication event: record load, legacy migration, and repair all hang
// off it.
func (h *SessionHandler) Attach(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no authenticated user")
		return
	}
	h.Session.HandleAuthEvent(r.Context(), uid)
	writeJSON(w, http.StatusOK, toSessionDTO(h.Session.Current()))
}

// SignOut detaches the identity and returns the guest snapshot.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.Session.SignOut(r.Context())
	writeJSON(w, http.StatusOK, toSessionDTO(h.Session.Current()))
}

type signUpRequest struct {
	Role string `json:"role"`
}

// SignUp creates the identity record for a provisioning session.
func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, ok := identity.ParseRole(req.Role)
	if !ok {
		writeErr(w, http.StatusBadRequest, "unknown role: "+strings.TrimSpace(req.Role))
		return
	}

	if err := h.Session.CompleteSignUp(r.Context(), role); err != nil {
		if errors.Is(err, session.ErrNotProvisioning) {
			writeErr(w, http.StatusConflict, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(h.Session.Current()))
}

type roleRequest struct {
	Role string `json:"role"`
}

// SwitchRole activates an already-held role.
func (h *SessionHandler) SwitchRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, ok := identity.ParseRole(req.Role)
	if !ok {
		writeErr(w, http.StatusBadRequest, "unknown role: "+strings.TrimSpace(req.Role))
		return
	}

	if err := h.Session.SwitchRole(r.Context(), role); err != nil {
		switch {
		case errors.Is(err, session.ErrNotReady):
			writeErr(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, identity.ErrRoleNotHeld):
			writeErr(w, http.StatusForbidden, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(h.Session.Current()))
}

// AddRole unions a new role into the role set and activates it.
func (h *SessionHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, ok := identity.ParseRole(req.Role)
	if !ok {
		writeErr(w, http.StatusBadRequest, "unknown role: "+strings.TrimSpace(req.Role))
		return
	}

	if err := h.Session.AddRole(r.Context(), role); err != nil {
		if errors.Is(err, session.ErrNotReady) {
			writeErr(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(h.Session.Current()))
}
