package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/client"
	"storefront/models"
)

func TestAuthService_LoginValidation(t *testing.T) {
	svc := NewAuthService(newFakeAPI(), nil)

	tests := []struct {
		creds   models.Credentials
		message string
	}{
		{models.Credentials{Password: "learnwithcrio"}, msgUsernameRequired},
		{models.Credentials{Username: "   ", Password: "learnwithcrio"}, msgUsernameRequired},
		{models.Credentials{Username: "crio.do"}, msgPasswordRequired},
	}
	for _, tt := range tests {
		session, note, err := svc.Login(context.Background(), tt.creds)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, tt.message, note.Message)
	}
}

func TestAuthService_Login(t *testing.T) {
	api := newFakeAPI()
	api.login = &models.LoginResponse{Success: true, Token: "testtoken", Username: "crio.do", Balance: 5000}
	svc := NewAuthService(api, nil)

	session, note, err := svc.Login(context.Background(), models.Credentials{Username: "crio.do", Password: "learnwithcrio"})
	require.NoError(t, err)
	assert.Equal(t, &models.Session{Token: "testtoken", Username: "crio.do", Balance: 5000}, session)
	assert.Equal(t, models.Notification{Message: msgLoggedIn, Variant: "success"}, note)
}

func TestAuthService_LoginRejected(t *testing.T) {
	api := newFakeAPI()
	api.loginErr = &client.APIError{StatusCode: http.StatusBadRequest, Message: "Password is incorrect"}
	svc := NewAuthService(api, nil)

	session, note, err := svc.Login(context.Background(), models.Credentials{Username: "crio.do", Password: "wrong"})
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "Password is incorrect", note.Message)

	api.loginErr = &client.APIError{StatusCode: http.StatusInternalServerError}
	_, note, err = svc.Login(context.Background(), models.Credentials{Username: "crio.do", Password: "wrong"})
	assert.ErrorIs(t, err, ErrNetworkOrServer)
	assert.Equal(t, msgGeneric, note.Message)

	api.loginErr = nil
	api.login = &models.LoginResponse{Success: false, Message: "Username does not exist"}
	_, note, err = svc.Login(context.Background(), models.Credentials{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "Username does not exist", note.Message)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeAPI(), nil)

	tests := []struct {
		name    string
		in      RegisterInput
		message string
	}{
		{"missing username", RegisterInput{Password: "secret1", ConfirmPassword: "secret1"}, msgUsernameRequired},
		{"short username", RegisterInput{Username: "crio", Password: "secret1", ConfirmPassword: "secret1"}, msgUsernameTooShort},
		{"missing password", RegisterInput{Username: "criodo"}, msgPasswordRequired},
		{"short password", RegisterInput{Username: "criodo", Password: "abc", ConfirmPassword: "abc"}, msgPasswordTooShort},
		{"mismatch", RegisterInput{Username: "criodo", Password: "secret1", ConfirmPassword: "secret2"}, msgPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tt.message, note.Message)
			assert.Equal(t, "error", note.Variant)
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	api := newFakeAPI()
	api.register = &models.RegisterResponse{Success: true}
	svc := NewAuthService(api, nil)
	in := RegisterInput{Username: "criodo", Password: "learnwithcrio", ConfirmPassword: "learnwithcrio"}

	note, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "success", note.Variant)

	api.register = nil
	api.regErr = &client.APIError{StatusCode: http.StatusBadRequest, Message: msgUsernameTaken}
	note, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, msgUsernameTaken, note.Message)
}
