package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/models"
)

const minCredentialLength = 6

// Validation and result messages of the auth forms
const (
	msgUsernameRequired = "Username is a required field"
	msgPasswordRequired = "Password is a required field"
	msgUsernameTooShort = "Username must be at least 6 characters"
	msgPasswordTooShort = "Password must be at least 6 characters"
	msgPasswordMismatch = "Passwords do not match"
	msgUsernameTaken    = "Username is already taken"
	msgLoggedIn         = "logged in"
	msgRegistered       = "Registration Successful"
)

// RegisterInput represents the registration form
type RegisterInput struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthService handles login and registration against the storefront API.
// Credentials are never stored.
type AuthService struct {
	api AuthAPI
	log *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(api AuthAPI, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{api: api, log: log}
}

// Login validates the form, authenticates and returns the new session
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.Session, models.Notification, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validateLogin(creds); err != nil {
		return nil, ToNotification(err), err
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		storeErr := classify(opAuth, err)
		s.log.Warn("login failed", zap.String("username", creds.Username), zap.Error(err))
		return nil, ToNotification(storeErr), storeErr
	}
	if !resp.Success || resp.Token == "" {
		storeErr := newStoreError(KindUnauthenticated, orDefault(resp.Message, msgGeneric), nil)
		return nil, ToNotification(storeErr), storeErr
	}

	s.log.Info("visitor logged in", zap.String("username", resp.Username))
	session := &models.Session{
		Token:    resp.Token,
		Username: resp.Username,
		Balance:  resp.Balance,
	}
	if session.Username == "" {
		session.Username = creds.Username
	}
	return session, models.Notification{Message: msgLoggedIn, Variant: "success"}, nil
}

// Register validates the form and creates the account
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.Notification, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateRegister(in); err != nil {
		return ToNotification(err), err
	}

	resp, err := s.api.Register(ctx, models.Credentials{Username: in.Username, Password: in.Password})
	if err != nil {
		storeErr := classify(opAuth, err)
		s.log.Warn("registration failed", zap.String("username", in.Username), zap.Error(err))
		return ToNotification(storeErr), storeErr
	}
	if !resp.Success {
		storeErr := newStoreError(KindUnauthenticated, orDefault(resp.Message, msgUsernameTaken), nil)
		return ToNotification(storeErr), storeErr
	}

	s.log.Info("visitor registered", zap.String("username", in.Username))
	return models.Notification{Message: msgRegistered, Variant: "success"}, nil
}

func validateLogin(creds models.Credentials) error {
	switch {
	case creds.Username == "":
		return newStoreError(KindInvalidInput, msgUsernameRequired, nil)
	case creds.Password == "":
		return newStoreError(KindInvalidInput, msgPasswordRequired, nil)
	}
	return nil
}

func validateRegister(in RegisterInput) error {
	switch {
	case in.Username == "":
		return newStoreError(KindInvalidInput, msgUsernameRequired, nil)
	case len(in.Username) < minCredentialLength:
		return newStoreError(KindInvalidInput, msgUsernameTooShort, nil)
	case in.Password == "":
		return newStoreError(KindInvalidInput, msgPasswordRequired, nil)
	case len(in.Password) < minCredentialLength:
		return newStoreError(KindInvalidInput, msgPasswordTooShort, nil)
	case in.Password != in.ConfirmPassword:
		return newStoreError(KindInvalidInput, msgPasswordMismatch, nil)
	}
	return nil
}
