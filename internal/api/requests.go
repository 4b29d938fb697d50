package api

import (
	"context"
	"fmt"

	"github.com/roadassist/client/internal/model"
)

// CreateRequestInput is the payload for booking a repair request with a
// specific shop.
type CreateRequestInput struct {
	MechanicShopID     string            `json:"mechanicShopId"`
	VehicleType        model.VehicleType `json:"vehicleType"`
	ProblemDescription string            `json:"problemDescription"`
	Latitude           float64           `json:"latitude"`
	Longitude          float64           `json:"longitude"`
	ClientAddress      string            `json:"clientAddress,omitempty"`
}

// SOSInput is the payload for an emergency broadcast. No shop is named;
// the server fans the request out to every shop in range.
type SOSInput struct {
	VehicleType        model.VehicleType `json:"vehicleType"`
	ProblemDescription string            `json:"problemDescription"`
	Latitude           float64           `json:"latitude"`
	Longitude          float64           `json:"longitude"`
}

// RatingInput rates a completed request.
type RatingInput struct {
	RequestID string `json:"requestId"`
	Rating    int    `json:"rating"`
	Review    string `json:"review,omitempty"`
}

// CreateRequest books a repair request with the named shop.
func (c *Client) CreateRequest(ctx context.Context, in CreateRequestInput) (*model.RepairRequest, error) {
	var req model.RepairRequest
	if err := c.Post(ctx, "/requests", in, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SendSOS broadcasts an emergency request to all shops near the given
// position.
func (c *Client) SendSOS(ctx context.Context, in SOSInput) (*model.RepairRequest, error) {
	var req model.RepairRequest
	if err := c.Post(ctx, "/requests/sos", in, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// MyRequests returns the authenticated client's own requests, newest
// first.
func (c *Client) MyRequests(ctx context.Context) ([]model.RepairRequest, error) {
	var requests []model.RepairRequest
	if err := c.Get(ctx, "/requests/my-requests", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// RateRequest submits a star rating and optional review for a completed
// request.
func (c *Client) RateRequest(ctx context.Context, in RatingInput) error {
	return c.Post(ctx, fmt.Sprintf("/requests/%s/rate", in.RequestID), in, nil)
}

// diagnoseInput is the payload for a repair suggestion.
type diagnoseInput struct {
	VehicleType        model.VehicleType `json:"vehicleType"`
	ProblemDescription string            `json:"problemDescription"`
}

// diagnoseResult carries the server's suggestion text.
type diagnoseResult struct {
	Suggestion string `json:"suggestion"`
}

// Diagnose asks the server for a likely cause and fix for the described
// problem. Requests usually come back with a suggestion attached; this
// covers the ones that do not.
func (c *Client) Diagnose(ctx context.Context, vehicleType model.VehicleType, problem string) (string, error) {
	in := diagnoseInput{VehicleType: vehicleType, ProblemDescription: problem}
	var out diagnoseResult
	if err := c.Post(ctx, "/requests/diagnose", in, &out); err != nil {
		return "", err
	}
	return out.Suggestion, nil
}
