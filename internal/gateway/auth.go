package gateway

import (
	"context"
	"net/http"

	"attractions-web/internal/domain"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and returns its credentials.
func (c *Client) Register(ctx context.Context, username, password string) (domain.Credentials, error) {
	return c.authenticate(ctx, "register", "/auth/signup", username, password)
}

// Login exchanges a username and password for credentials.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Credentials, error) {
	return c.authenticate(ctx, "login", "/auth/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, op, path, username, password string) (domain.Credentials, error) {
	if username == "" || password == "" {
		return domain.Credentials{}, domain.NewError(domain.ErrValidation, op, 0, "username and password are required", nil)
	}

	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   authRequest{Username: username, Password: password},
	})
	if err != nil {
		return domain.Credentials{}, err
	}

	var creds domain.Credentials
	if err := c.decode(op, resp, domain.ErrAuth, schemaCredentials, &creds); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// CheckSession asks the server who owns token. A nil user ID with a nil error means
// the token is no longer valid; an expired token is a normal state, not a failure.
func (c *Client) CheckSession(ctx context.Context, token string) (*int, error) {
	const op = "check_session"
	if token == "" {
		return nil, nil
	}

	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/auth/check",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusUnauthorized {
		return nil, nil
	}

	var body struct {
		UserID *int `json:"user_id"`
	}
	if err := c.decode(op, resp, domain.ErrHTTP, schemaAuthCheck, &body); err != nil {
		return nil, err
	}
	return body.UserID, nil
}
