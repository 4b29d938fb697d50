package api

import (
	"context"
	"fmt"

	"github.com/roadassist/client/internal/model"
)

// statusUpdateInput is the body for the status-update endpoint.
type statusUpdateInput struct {
	Status model.Status `json:"status"`
}

// IncomingRequests returns pending requests addressed to the mechanic's
// shop, including unclaimed SOS broadcasts in range.
func (c *Client) IncomingRequests(ctx context.Context) ([]model.RepairRequest, error) {
	var requests []model.RepairRequest
	if err := c.Get(ctx, "/mechanic/incoming-requests", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ActiveJobs returns the mechanic's accepted, not yet completed jobs.
func (c *Client) ActiveJobs(ctx context.Context) ([]model.RepairRequest, error) {
	var requests []model.RepairRequest
	if err := c.Get(ctx, "/mechanic/active-jobs", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CompletedJobs returns the mechanic's finished jobs.
func (c *Client) CompletedJobs(ctx context.Context) ([]model.RepairRequest, error) {
	var requests []model.RepairRequest
	if err := c.Get(ctx, "/mechanic/completed-jobs", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// WorkHistory returns every request the mechanic's shop was ever
// involved in.
func (c *Client) WorkHistory(ctx context.Context) ([]model.RepairRequest, error) {
	var requests []model.RepairRequest
	if err := c.Get(ctx, "/mechanic/work-history", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// AcceptRequest claims a pending request for the mechanic's shop. The
// server rejects the call if another shop already took it.
func (c *Client) AcceptRequest(ctx context.Context, requestID string) (*model.RepairRequest, error) {
	var req model.RepairRequest
	if err := c.Put(ctx, fmt.Sprintf("/mechanic/accept-request/%s", requestID), nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// RejectRequest declines a pending request.
func (c *Client) RejectRequest(ctx context.Context, requestID string) error {
	return c.Put(ctx, fmt.Sprintf("/mechanic/reject-request/%s", requestID), nil, nil)
}

// UpdateRequestStatus moves an accepted job forward, e.g. to COMPLETED.
func (c *Client) UpdateRequestStatus(ctx context.Context, requestID string, status model.Status) (*model.RepairRequest, error) {
	var req model.RepairRequest
	in := statusUpdateInput{Status: status}
	if err := c.Put(ctx, fmt.Sprintf("/mechanic/update-status/%s", requestID), in, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SetAvailability toggles whether the mechanic's shop accepts new
// bookings.
func (c *Client) SetAvailability(ctx context.Context, available bool) error {
	in := struct {
		IsAvailable bool `json:"isAvailable"`
	}{IsAvailable: available}
	return c.Put(ctx, "/mechanic/availability", in, nil)
}
