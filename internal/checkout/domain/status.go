package domain

type SessionStatus string

const (
	StatusIdle                SessionStatus = "IDLE"
	StatusCreated             SessionStatus = "CREATED"
	StatusAwaitingGateway     SessionStatus = "AWAITING_GATEWAY"
	StatusVerificationPending SessionStatus = "VERIFICATION_PENDING"
	StatusVerified            SessionStatus = "VERIFIED"
	StatusFailed              SessionStatus = "FAILED"
	StatusCancelled           SessionStatus = "CANCELLED"
)

func (s SessionStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusCancelled
}

// String representation (for logging)
func (s SessionStatus) String() string {
	return string(s)
}

// CanTransitionTo encodes the legal session transitions. Everything outside
// this table is a programming error or a replayed/forged event.
func CanTransitionTo(from, to SessionStatus) bool {
	switch from {
	case StatusIdle:
		return to == StatusCreated
	case StatusCreated:
		return to == StatusAwaitingGateway || to == StatusFailed
	case StatusAwaitingGateway:
		return to == StatusVerificationPending || to == StatusCancelled
	case StatusVerificationPending:
		return to == StatusVerified || to == StatusFailed
	default:
		return false
	}
}
