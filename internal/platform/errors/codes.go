package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Roster errors
	CodeRosterClosed          Code = "ROSTER_CLOSED"
	CodeRosterInvalidCapacity Code = "ROSTER_INVALID_CAPACITY"
	CodeRosterInvalidState    Code = "ROSTER_INVALID_STATE"
	CodeRosterAlreadyExists   Code = "ROSTER_ALREADY_EXISTS"

	// Guest errors
	CodeGuestNameRequired Code = "GUEST_NAME_REQUIRED"
	CodeGuestLimitReached Code = "GUEST_LIMIT_REACHED"
	CodeGuestDuplicate    Code = "GUEST_DUPLICATE"
	CodeGuestNotFound     Code = "GUEST_NOT_FOUND"

	// Recovery errors
	CodeRecoveryFailed Code = "RECOVERY_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
