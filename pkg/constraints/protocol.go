package constraints

import "slices"

type Action string

const (
	CREATE Action = "created"
	DELETE Action = "deleted"
	// PING is a keep-alive frame, never stored in the replay buffer.
	PING Action = "ping"
)

// Feature type tags. Anything not listed here is still accepted by the
// registry and materializes as a null value.
const (
	TypeText       = "text"
	TypeImage      = "img"
	TypeImageAlias = "image"
	TypeNumber     = "number"
)

const (
	StatusUpcoming       = "upcoming"
	StatusRegisterOpened = "register_opened"
	StatusOngoing        = "ongoing"
	StatusCompleted      = "completed"
)

// Statuses lists the valid olimpiad statuses in display order.
var Statuses = []string{StatusUpcoming, StatusRegisterOpened, StatusOngoing, StatusCompleted}

func ValidStatus(status string) bool {
	return slices.Contains(Statuses, status)
}
