package model

// Role identifies which side of the marketplace a user is on.
type Role string

const (
	// RoleClient is a vehicle owner requesting repair service.
	RoleClient Role = "CLIENT"

	// RoleMechanic is a repair provider tied to a shop profile.
	RoleMechanic Role = "MECHANIC"
)

// UserProfile is the authenticated user's identity as returned by the
// server.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`

	// MechanicShop is present only for mechanic accounts.
	MechanicShop *MechanicShop `json:"mechanicShop,omitempty"`
}
