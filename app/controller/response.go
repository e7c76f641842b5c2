package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/service"
)

const visitorCookie = "sf_visitor"

// errorResponse is the body of every failed request
type errorResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// StatusFor maps an error kind to the HTTP status returned to the browser
func StatusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindAlreadyInCart:
		return http.StatusConflict
	case service.KindProductNotFound:
		return http.StatusNotFound
	case service.KindInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("❌ failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := service.KindOf(err)
	note := service.ToNotification(err)
	writeJSON(w, log, StatusFor(kind), errorResponse{
		Success: false,
		Kind:    string(kind),
		Message: note.Message,
	})
}

func writeBadRequest(w http.ResponseWriter, log *zap.Logger, message string) {
	writeJSON(w, log, http.StatusBadRequest, errorResponse{Success: false, Message: message})
}

func methodAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// visitors resolves the caller's storefront from the visitor cookie
type visitors struct {
	registry *service.VisitorRegistry
	ttl      time.Duration
	log      *zap.Logger
}

// storefront returns the caller's storefront, creating and initializing it
// for new visitors. A catalog that failed to load is retried. It reports false
// after writing a 503 when the server is shutting down.
func (v visitors) storefront(w http.ResponseWriter, r *http.Request) (*service.Storefront, bool) {
	id := ""
	if cookie, err := r.Cookie(visitorCookie); err == nil {
		id = cookie.Value
	}

	id, sf, created, err := v.registry.GetOrCreate(id)
	if err != nil {
		v.log.Warn("⚠️  visitor lookup rejected", zap.Error(err))
		writeJSON(w, v.log, http.StatusServiceUnavailable, errorResponse{Success: false, Message: "Server is shutting down"})
		return nil, false
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(v.ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		if err := sf.Init(r.Context()); err != nil {
			v.log.Warn("⚠️  visitor storefront initialized with errors", zap.String("visitor_id", id), zap.Error(err))
		}
		return sf, true
	}

	if !sf.Catalog().Loaded() {
		_ = sf.ReloadCatalog(r.Context())
	}
	return sf, true
}

// sessionResponse is the public part of a session; the token stays server side
type sessionResponse struct {
	Success      bool                 `json:"success"`
	Username     string               `json:"username,omitempty"`
	Balance      float64              `json:"balance,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}
