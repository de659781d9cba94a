package backend

import (
	"context"
	"errors"
)

// Tokens is the pair issued by the backend login endpoint.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

var ErrNoAccessToken = errors.New("backend response carried no access token")

// Login exchanges credentials for tokens via POST /login/.
func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	var tokens Tokens
	if err := c.Post(ctx, "/login/", loginRequest{Username: username, Password: password}, &tokens); err != nil {
		return Tokens{}, err
	}
	if tokens.Access == "" {
		return Tokens{}, ErrNoAccessToken
	}
	return tokens, nil
}

// Refresh trades a refresh token for a new access token. When the backend
// does not rotate refresh tokens the returned Refresh is the one passed in.
func (c *Client) Refresh(ctx context.Context, path, refreshToken string) (Tokens, error) {
	var tokens Tokens
	if err := c.Post(ctx, path, refreshRequest{Refresh: refreshToken}, &tokens); err != nil {
		return Tokens{}, err
	}
	if tokens.Access == "" {
		return Tokens{}, ErrNoAccessToken
	}
	if tokens.Refresh == "" {
		tokens.Refresh = refreshToken
	}
	return tokens, nil
}
