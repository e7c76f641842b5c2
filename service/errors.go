package service

import (
	"errors"
	"net/http"

	"storefront/client"
	"storefront/models"
)

// ErrorKind classifies every failure surfaced to the visitor
type ErrorKind string

const (
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindAlreadyInCart      ErrorKind = "already_in_cart"
	KindProductNotFound    ErrorKind = "product_not_found"
	KindCatalogUnavailable ErrorKind = "catalog_unavailable"
	KindSearchFailed       ErrorKind = "search_failed"
	KindNetworkOrServer    ErrorKind = "network_or_server_error"
	// KindInvalidInput is only produced by the auth flow's form validation
	KindInvalidInput ErrorKind = "invalid_input"
)

// User-visible messages
const (
	msgGeneric         = "Something went wrong. Check with backend"
	msgCatalogGeneric  = "Something went wrong. Check the backend console for more details"
	msgCartFetch       = "Could not fetch cart details. Check that the backend is running, reachable and returns valid JSON."
	msgLoginRequired   = "Login to add an item to the Cart"
	msgAlreadyInCart   = "Item already in cart. Use the cart sidebar to update quantity or remove item."
	msgNotInCart       = "Item is not in the cart"
	msgProductNotFound = "Product doesn't exist"
)

// StoreError is the only error type returned by the coordinators
type StoreError struct {
	Kind    ErrorKind
	Message string // safe to show to the visitor
	Err     error  // underlying cause, never shown
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches any *StoreError of the same kind, so errors.Is(err, ErrAlreadyInCart) works
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrUnauthenticated    = &StoreError{Kind: KindUnauthenticated}
	ErrAlreadyInCart      = &StoreError{Kind: KindAlreadyInCart}
	ErrProductNotFound    = &StoreError{Kind: KindProductNotFound}
	ErrCatalogUnavailable = &StoreError{Kind: KindCatalogUnavailable}
	ErrSearchFailed       = &StoreError{Kind: KindSearchFailed}
	ErrNetworkOrServer    = &StoreError{Kind: KindNetworkOrServer}
	ErrInvalidInput       = &StoreError{Kind: KindInvalidInput}
)

func newStoreError(kind ErrorKind, message string, cause error) *StoreError {
	return &StoreError{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of err, or KindNetworkOrServer for anything unclassified
func KindOf(err error) ErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNetworkOrServer
}

// ToNotification converts err into the message shown to the visitor
func ToNotification(err error) models.Notification {
	var se *StoreError
	if !errors.As(err, &se) {
		return models.Notification{Message: msgGeneric, Variant: "error"}
	}
	variant := "error"
	switch se.Kind {
	case KindUnauthenticated, KindAlreadyInCart:
		variant = "warning"
	}
	msg := se.Message
	if msg == "" {
		msg = msgGeneric
	}
	return models.Notification{Message: msg, Variant: variant}
}

type operation int

const (
	opCatalog operation = iota
	opSearch
	opCartFetch
	opCartMutate
	opAuth
)

// classify converts any error from a network call into exactly one StoreError.
// Server messages are kept verbatim for 4xx replies; everything else gets a generic message.
func classify(op operation, err error) *StoreError {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *client.APIError
	isAPI := errors.As(err, &apiErr)
	clientSide := isAPI && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	serverMsg := ""
	if clientSide {
		serverMsg = apiErr.Message
	}

	switch op {
	case opCatalog:
		return newStoreError(KindCatalogUnavailable, orDefault(serverMsg, msgCatalogGeneric), err)

	case opSearch:
		return newStoreError(KindSearchFailed, orDefault(serverMsg, msgGeneric), err)

	case opCartFetch:
		if isAPI && apiErr.StatusCode == http.StatusUnauthorized {
			return newStoreError(KindUnauthenticated, orDefault(serverMsg, msgLoginRequired), err)
		}
		return newStoreError(KindNetworkOrServer, orDefault(serverMsg, msgCartFetch), err)

	case opCartMutate:
		if isAPI {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized:
				return newStoreError(KindUnauthenticated, orDefault(serverMsg, msgLoginRequired), err)
			case http.StatusNotFound:
				return newStoreError(KindProductNotFound, orDefault(serverMsg, msgProductNotFound), err)
			}
		}
		return newStoreError(KindNetworkOrServer, orDefault(serverMsg, msgGeneric), err)

	case opAuth:
		if clientSide {
			return newStoreError(KindUnauthenticated, orDefault(serverMsg, msgGeneric), err)
		}
		return newStoreError(KindNetworkOrServer, msgGeneric, err)
	}

	return newStoreError(KindNetworkOrServer, msgGeneric, err)
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
