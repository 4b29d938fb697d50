package model

// Status is the lifecycle state of a repair request, using the server's
// wire values.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// CanTransitionTo reports whether the status machine permits moving from
// s to next. Transitions are monotonic: PENDING -> {ACCEPTED, REJECTED},
// ACCEPTED -> COMPLETED. A request never re-enters PENDING.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusCompleted
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// VehicleType identifies the kind of vehicle a request concerns.
type VehicleType string

const (
	VehicleTwoWheeler  VehicleType = "TWO_WHEELER"
	VehicleFourWheeler VehicleType = "FOUR_WHEELER"
)

// RequestType distinguishes a normal booking from an emergency broadcast.
type RequestType string

const (
	RequestNormal RequestType = "NORMAL"
	RequestSOS    RequestType = "SOS"
)

// RepairRequest is a client's request for roadside repair service.
// Field names follow the server's JSON contract.
type RepairRequest struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// ClientID references the requesting user.
	ClientID string `json:"clientId"`

	// ClientName and ClientPhone are denormalized contact details,
	// populated by the server once a mechanic may see them.
	ClientName  string `json:"clientName,omitempty"`
	ClientPhone string `json:"clientPhone,omitempty"`

	// ClientAddress is a free-text address supplied at creation time.
	ClientAddress string `json:"clientAddress,omitempty"`

	// MechanicShopID references the shop the request was booked with,
	// or the shop that claimed it. Empty for unclaimed SOS broadcasts.
	MechanicShopID string `json:"mechanicShopId,omitempty"`

	// MechanicUserID is the user account of the assigned mechanic.
	MechanicUserID string `json:"mechanicUserId,omitempty"`

	// Denormalized shop details shown to the client once accepted.
	ShopName    string `json:"shopName,omitempty"`
	ShopAddress string `json:"shopAddress,omitempty"`
	ShopPhone   string `json:"shopPhone,omitempty"`

	// ClientLocation is where the breakdown happened.
	ClientLocation GeoPoint `json:"clientLocation"`

	VehicleType        VehicleType `json:"vehicleType"`
	ProblemDescription string      `json:"problemDescription,omitempty"`

	// AISuggestion is an optional machine-generated repair guess
	// attached by the server at creation time.
	AISuggestion string `json:"aiSuggestion,omitempty"`

	Type   RequestType `json:"type"`
	Status Status      `json:"status"`

	// Rating and Review are set after the client rates a completed job.
	Rating int    `json:"rating,omitempty"`
	Review string `json:"review,omitempty"`

	CreatedAt   Time `json:"createdAt"`
	AcceptedAt  Time `json:"acceptedAt,omitzero"`
	CompletedAt Time `json:"completedAt,omitzero"`
}

// Emergency reports whether the request was broadcast as an SOS.
func (r RepairRequest) Emergency() bool {
	return r.Type == RequestSOS
}
