package models

// Session represents an authenticated visitor.
// It is owned by the auth flow; cart operations only read it.
type Session struct {
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// Authenticated reports whether the session carries a token
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Credentials represents the request body for POST /auth/login and POST /auth/register
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the response of POST /auth/login
// Example: {"success": true, "token": "testtoken", "username": "criodo", "balance": 5000}
type LoginResponse struct {
	Success  bool    `json:"success"`
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
	Message  string  `json:"message,omitempty"`
}

// RegisterResponse represents the response of POST /auth/register
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// APIErrorBody is the error body returned by the storefront API
// Example: {"success": false, "message": "Product doesn't exist"}
type APIErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
