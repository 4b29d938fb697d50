package api

import (
	"context"

	"github.com/roadassist/client/internal/model"
)

// LoginRequest is the credentials payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a new account. The shop fields apply only when
// Role is MECHANIC.
type RegisterRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`

	ShopName        string   `json:"shopName,omitempty"`
	Address         string   `json:"address,omitempty"`
	ShopTypes       []string `json:"shopTypes,omitempty"`
	OpenTime        string   `json:"openTime,omitempty"`
	CloseTime       string   `json:"closeTime,omitempty"`
	Latitude        float64  `json:"latitude,omitempty"`
	Longitude       float64  `json:"longitude,omitempty"`
	ServicesOffered string   `json:"servicesOffered,omitempty"`
}

// AuthResponse is the server's reply to a successful login or
// registration: a bearer token plus the authenticated profile.
type AuthResponse struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account and returns an authenticated session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile fetches the current user's profile. Useful at startup to
// validate a persisted token before opening the main view.
func (c *Client) Profile(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.Get(ctx, "/user/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
