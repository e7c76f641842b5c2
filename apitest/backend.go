// Package apitest provides an in-process storefront API for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/models"
)

// Token is the bearer token issued to every successful login
const Token = "testtoken"

// Backend emulates the storefront REST API under /api/v1
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	products []models.Product
	users    map[string]string
	cart     []models.CartEntry
	requests []string
}

// Catalog is the product list served by default
func Catalog() []models.Product {
	return []models.Product{
		{ID: "KCRwjF7lN97HnEaY", Name: "UNIFACTOR Mens Running Shoes", Category: "Fashion", Cost: 50, Rating: 5, ImageURL: "/images/shoes.png"},
		{ID: "BW0jAAeDJmlZCF8i", Name: "Tan Leatherette Weekender Duffle", Category: "Fashion", Cost: 150, Rating: 4},
		{ID: "v4sLtEcMpzabRyfx", Name: "iPhone XR", Category: "Phones", Cost: 100, Rating: 4},
	}
}

// NewBackend starts a backend with the default catalog and one user
// "crio.do" / "learnwithcrio"
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		products: Catalog(),
		users:    map[string]string{"crio.do": "learnwithcrio"},
		cart:     []models.CartEntry{},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API root for client.New
func (b *Backend) URL() string {
	return b.Server.URL + "/api/v1"
}

// SetCart replaces the stored cart
func (b *Backend) SetCart(entries []models.CartEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cart = append([]models.CartEntry{}, entries...)
}

// Cart returns the stored cart
func (b *Backend) Cart() []models.CartEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.CartEntry{}, b.cart...)
}

// Requests returns "METHOD path" for every request served
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.requests...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case r.Method == http.MethodGet && path == "/products":
		writeJSON(w, http.StatusOK, b.products)
	case r.Method == http.MethodGet && path == "/products/search":
		b.search(w, r)
	case path == "/cart":
		b.handleCart(w, r)
	case r.Method == http.MethodPost && path == "/auth/login":
		b.login(w, r)
	case r.Method == http.MethodPost && path == "/auth/register":
		b.register(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v1/images/"):
		w.Header().Set("Content-Type", "image/png")
		w.Write(PNG())
	default:
		writeJSON(w, http.StatusNotFound, models.APIErrorBody{Message: "Not found"})
	}
}

func (b *Backend) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("value"))
	out := []models.Product{}
	for _, p := range b.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+Token {
		writeJSON(w, http.StatusUnauthorized, models.APIErrorBody{Message: "Protected route, Oauth2 Bearer token not found"})
		return
	}

	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, b.Cart())
		return
	}

	var req models.SetCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.APIErrorBody{Message: "Invalid body"})
		return
	}
	known := false
	for _, p := range b.products {
		known = known || p.ID == req.ProductID
	}
	if !known {
		writeJSON(w, http.StatusNotFound, models.APIErrorBody{Message: "Product doesn't exist"})
		return
	}

	b.mu.Lock()
	next := []models.CartEntry{}
	found := false
	for _, e := range b.cart {
		if e.ProductID == req.ProductID {
			found = true
			if req.Qty > 0 {
				next = append(next, models.CartEntry{ProductID: e.ProductID, Qty: req.Qty})
			}
			continue
		}
		next = append(next, e)
	}
	if !found && req.Qty > 0 {
		next = append(next, models.CartEntry{ProductID: req.ProductID, Qty: req.Qty})
	}
	b.cart = next
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, b.Cart())
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	_ = json.NewDecoder(r.Body).Decode(&creds)

	b.mu.Lock()
	password, ok := b.users[creds.Username]
	b.mu.Unlock()
	switch {
	case !ok:
		writeJSON(w, http.StatusBadRequest, models.APIErrorBody{Message: "Username does not exist"})
	case password != creds.Password:
		writeJSON(w, http.StatusBadRequest, models.APIErrorBody{Message: "Password is incorrect"})
	default:
		writeJSON(w, http.StatusCreated, models.LoginResponse{Success: true, Token: Token, Username: creds.Username, Balance: 5000})
	}
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	_ = json.NewDecoder(r.Body).Decode(&creds)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.users[creds.Username]; taken {
		writeJSON(w, http.StatusBadRequest, models.APIErrorBody{Message: "Username is already taken"})
		return
	}
	b.users[creds.Username] = creds.Password
	writeJSON(w, http.StatusCreated, models.RegisterResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// PNG returns a small solid PNG image
func PNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
