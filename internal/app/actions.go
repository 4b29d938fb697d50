package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/geo"
	"github.com/roadassist/client/internal/model"
)

// requestTimeout bounds every user-triggered API round-trip.
const requestTimeout = 15 * time.Second

// toastDuration is how long a status-bar toast stays visible.
const toastDuration = 4 * time.Second

// sessionValidatedMsg reports the outcome of validating a resumed token.
type sessionValidatedMsg struct {
	user *model.UserProfile
	err  error
}

// authResultMsg reports a login or registration round-trip.
type authResultMsg struct {
	resp       *api.AuthResponse
	err        error
	registered bool
}

// sessionExpiredMsg fires when the server rejects the current token.
type sessionExpiredMsg struct{}

// actionDoneMsg reports a mutation round-trip. The toast names the
// action; on error it becomes the failure prefix.
type actionDoneMsg struct {
	toast string
	err   error
}

// shopsFoundMsg carries a nearby-shop search result.
type shopsFoundMsg struct {
	shops []model.MechanicShop
	err   error
}

// toastClearMsg expires a toast. The seq guard keeps an old timer from
// wiping a newer toast.
type toastClearMsg struct {
	seq int
}

// availabilityMsg reports an availability toggle round-trip.
type availabilityMsg struct {
	available bool
	err       error
}

// bookingShopMsg carries the shop the booking form should open with.
type bookingShopMsg struct {
	shop model.MechanicShop
}

func reqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// validateSession checks a resumed token by fetching the profile.
func (m Model) validateSession() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		user, err := client.Profile(ctx)
		return sessionValidatedMsg{user: user, err: err}
	}
}

// doLogin exchanges credentials for a token.
func (m Model) doLogin(creds api.LoginRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		resp, err := client.Login(ctx, creds)
		return authResultMsg{resp: resp, err: err}
	}
}

// doRegister creates an account and signs it in.
func (m Model) doRegister(reg api.RegisterRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		resp, err := client.Register(ctx, reg)
		return authResultMsg{resp: resp, err: err, registered: true}
	}
}

// handleAuthResult finishes a login or registration attempt.
func (m Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		text := "Sign in failed"
		if msg.registered {
			text = "Registration failed"
		}
		var apiErr *api.APIError
		if api.IsAuthError(msg.err) {
			text = "Invalid email or password"
		} else if errors.As(msg.err, &apiErr) && apiErr.Message != "" {
			text = apiErr.Message
		}
		return m, m.loginView.SetError(text)
	}

	if err := m.session.Start(msg.resp.Token, &msg.resp.User); err != nil {
		m.logger.Warn("persisting session failed", "error", err)
	}
	return m.enterMain()
}

// acceptRequest claims an incoming request for this shop.
func (m Model) acceptRequest(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if _, err := client.AcceptRequest(ctx, id); err != nil {
			return actionDoneMsg{toast: "Accept failed", err: err}
		}
		return actionDoneMsg{toast: "Request accepted"}
	}
}

// rejectRequest declines an incoming request.
func (m Model) rejectRequest(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if err := client.RejectRequest(ctx, id); err != nil {
			return actionDoneMsg{toast: "Reject failed", err: err}
		}
		return actionDoneMsg{toast: "Request declined"}
	}
}

// completeRequest marks an accepted job finished.
func (m Model) completeRequest(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if _, err := client.UpdateRequestStatus(ctx, id, model.StatusCompleted); err != nil {
			return actionDoneMsg{toast: "Complete failed", err: err}
		}
		return actionDoneMsg{toast: "Job marked complete"}
	}
}

// createRequest books a repair request with the chosen shop and
// surfaces the repair suggestion when one comes back.
func (m Model) createRequest(in api.CreateRequestInput) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		created, err := client.CreateRequest(ctx, in)
		if err != nil {
			return actionDoneMsg{toast: "Booking failed", err: err}
		}

		suggestion := created.AISuggestion
		if suggestion == "" {
			// Best effort; the booking already succeeded.
			suggestion, _ = client.Diagnose(ctx, in.VehicleType, in.ProblemDescription)
		}
		if suggestion != "" {
			return actionDoneMsg{toast: "Request sent. Hint: " + truncate(suggestion, 80)}
		}
		return actionDoneMsg{toast: "Request sent"}
	}
}

// truncate shortens s for the status bar.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// setAvailability opens or closes the mechanic's shop for new bookings.
func (m Model) setAvailability(available bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if err := client.SetAvailability(ctx, available); err != nil {
			return availabilityMsg{err: err}
		}
		return availabilityMsg{available: available}
	}
}

// openBooking refetches the chosen shop so the booking form opens with
// current details; availability may have changed since the search. The
// listed result is kept when the refetch fails.
func (m Model) openBooking(shop model.MechanicShop) tea.Cmd {
	client := m.client
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		fresh, err := client.Shop(ctx, shop.ID)
		if err != nil {
			logger.Debug("shop refresh failed", "shop", shop.ID, "error", err)
			return bookingShopMsg{shop: shop}
		}
		fresh.DistanceKm = shop.DistanceKm
		return bookingShopMsg{shop: *fresh}
	}
}

// sendSOS broadcasts an emergency request to every shop in range.
func (m Model) sendSOS(in api.SOSInput) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if _, err := client.SendSOS(ctx, in); err != nil {
			return actionDoneMsg{toast: "SOS failed", err: err}
		}
		return actionDoneMsg{toast: "SOS broadcast sent"}
	}
}

// submitRating rates a completed job.
func (m Model) submitRating(in api.RatingInput) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()
		if err := client.RateRequest(ctx, in); err != nil {
			return actionDoneMsg{toast: "Rating failed", err: err}
		}
		return actionDoneMsg{toast: "Thanks for the rating"}
	}
}

// findNearbyShops searches for shops around the latest position fix,
// falling back to the offline cache when the server is unreachable.
func (m Model) findNearbyShops() tea.Cmd {
	if !m.haveFix {
		return func() tea.Msg {
			return shopsFoundMsg{err: fmt.Errorf("no position fix yet")}
		}
	}

	client := m.client
	cache := m.cache
	logger := m.logger
	pos := m.position
	radius := m.cfg.Nearby.RadiusKm
	q := api.NearbyQuery{
		Latitude:           pos.Latitude,
		Longitude:          pos.Longitude,
		RadiusKm:           radius,
		IncludeUnavailable: m.cfg.Nearby.IncludeUnavailable,
	}

	return func() tea.Msg {
		ctx, cancel := reqCtx()
		defer cancel()

		shops, err := client.NearbyShops(ctx, q)
		if err != nil {
			cached, cerr := cache.GetShops(ctx)
			if cerr == nil && len(cached) > 0 {
				logger.Info("shop search offline; using cached shops", "error", err)
				return shopsFoundMsg{shops: geo.FilterByRadius(cached, pos, radius)}
			}
			return shopsFoundMsg{err: err}
		}

		// The server already filters, but the cutoff is re-applied here
		// so distance annotations and ordering stay consistent.
		shops = geo.FilterByRadius(shops, pos, radius)

		if err := cache.UpsertShops(ctx, shops); err != nil {
			logger.Warn("caching shops failed", "error", err)
		}
		return shopsFoundMsg{shops: shops}
	}
}

// handleActionDone shows the outcome toast and refetches request lists.
func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsAuthError(msg.err) {
			// Expiry teardown arrives separately via the client hook.
			return m, nil
		}
		m.logger.Warn("action failed", "action", msg.toast, "error", msg.err)
		return m.showToast(errorToast(msg.toast, msg.err))
	}

	mdl, cmd := m.showToast(msg.toast)
	return mdl, tea.Batch(cmd, m.poller.Refresh(feedRequests))
}

// showToast displays a transient message in the status bar.
func (m Model) showToast(text string) (Model, tea.Cmd) {
	m.toast = text
	m.toastSeq++
	seq := m.toastSeq
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{seq: seq}
	})
}

// errorToast formats a failure for the status bar.
func errorToast(prefix string, err error) string {
	return fmt.Sprintf("%s: %v", prefix, err)
}
