package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/service"
)

// AuthController handles HTTP requests for login, registration and logout
type AuthController struct {
	visitors visitors
	auth     *service.AuthService
	log      *zap.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(registry *service.VisitorRegistry, ttl time.Duration, auth *service.AuthService, log *zap.Logger) *AuthController {
	return &AuthController{
		visitors: visitors{registry: registry, ttl: ttl, log: log},
		auth:     auth,
		log:      log,
	}
}

// Login handles POST /auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeBadRequest(w, c.log, "Invalid request body")
		return
	}

	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	session, note, err := c.auth.Login(r.Context(), creds)
	if err != nil {
		c.log.Info("❌ Login: rejected", zap.String("username", creds.Username))
		writeError(w, c.log, err)
		return
	}

	sf.SetSession(session)
	if _, err := sf.LoadCart(r.Context()); err != nil {
		c.log.Warn("⚠️  Login: cart not loaded", zap.String("username", session.Username), zap.Error(err))
	}

	c.log.Info("✅ Login: visitor logged in", zap.String("username", session.Username))
	writeJSON(w, c.log, http.StatusOK, sessionResponse{
		Success:      true,
		Username:     session.Username,
		Balance:      session.Balance,
		Notification: &note,
	})
}

// Register handles POST /auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var in service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, c.log, "Invalid request body")
		return
	}

	note, err := c.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, c.log, err)
		return
	}
	writeJSON(w, c.log, http.StatusCreated, sessionResponse{Success: true, Notification: &note})
}

// Logout handles POST /auth/logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	sf.Logout()
	writeJSON(w, c.log, http.StatusOK, sessionResponse{Success: true})
}
