package auth

import (
	"context"

	"spendsight/internal/models"
	"spendsight/internal/services"
)

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	Principal Principal    `json:"principal"`
	User      *models.User `json:"user"`
}

// LoginResult carries the outcome of an asynchronous login.
type LoginResult struct {
	Session *Session
	Err     error
}

// Authenticator checks credentials against the user directory and issues tokens.
type Authenticator struct {
	users  services.UserServicer
	tokens *TokenIssuer
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(users services.UserServicer, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Login verifies the credentials and returns a session with a fresh token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := a.users.AttemptLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		Principal: Principal{UserID: user.ID, Email: user.Email, Role: user.Role},
		User:      user,
	}, nil
}

// LoginAsync runs Login in the background. The channel receives exactly one
// result; if ctx ends first the result carries ctx's error.
func (a *Authenticator) LoginAsync(ctx context.Context, email, password string) <-chan LoginResult {
	out := make(chan LoginResult, 1)
	go func() {
		done := make(chan LoginResult, 1)
		go func() {
			s, err := a.Login(ctx, email, password)
			done <- LoginResult{Session: s, Err: err}
		}()

		select {
		case res := <-done:
			out <- res
		case <-ctx.Done():
			out <- LoginResult{Err: ctx.Err()}
		}
	}()
	return out
}
