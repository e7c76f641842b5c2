package service

import (
	"context"

	"storefront/models"
)

// CatalogAPI defines the catalog fetch used by CatalogStore
type CatalogAPI interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// SearchAPI defines the search call used by SearchCoordinator
type SearchAPI interface {
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
}

// CartAPI defines the remote cart primitives used by CartCoordinator.
// SetCartItem returns the full authoritative cart after the change.
type CartAPI interface {
	GetCart(ctx context.Context, token string) ([]models.CartEntry, error)
	SetCartItem(ctx context.Context, token, productID string, qty int) ([]models.CartEntry, error)
}

// AuthAPI defines the login and registration calls
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	Register(ctx context.Context, creds models.Credentials) (*models.RegisterResponse, error)
}

// ImageFetcher downloads product images
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// StorefrontAPI is everything a visitor's view model needs from the remote API
type StorefrontAPI interface {
	CatalogAPI
	SearchAPI
	CartAPI
}

// CatalogSnapshotter yields the current catalog snapshot
type CatalogSnapshotter interface {
	Snapshot() []models.Product
}
