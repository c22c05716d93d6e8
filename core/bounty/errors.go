package bounty

import "net/http"

// Err is a simple string error helper.
type Err string

func (e Err) Error() string { return string(e) }

// Validation errors: field constraints violated on input.
var (
	ErrTitleTooLong          = Err("title too long")
	ErrDescriptionTooLong    = Err("description too long")
	ErrRequirementsTooLong   = Err("requirements too long")
	ErrInvalidReward         = Err("invalid reward amount")
	ErrInvalidDeadline       = Err("invalid deadline")
	ErrCompletionDataTooLong = Err("completion data too long")
	ErrURLTooLong            = Err("submission url too long")
	ErrReasonTooLong         = Err("rejection reason too long")
)

// State errors: operation attempted from a status that does not permit it.
var (
	ErrBountyNotOpen          = Err("bounty is not open")
	ErrBountyNotInProgress    = Err("bounty is not in progress")
	ErrBountyNotPendingReview = Err("bounty is not pending review")
)

// Authorization errors: caller does not hold the role the operation demands.
var (
	ErrNotAssignedAgent = Err("not the assigned agent")
	ErrNotBountyCreator = Err("not the bounty creator")
	ErrNotAuthority     = Err("not the marketplace authority")
)

// Temporal errors.
var ErrBountyExpired = Err("bounty has expired")

// Custody errors. The token package declares its sentinel with this exact
// value, so the mappings below catch it without an import cycle.
var ErrInsufficientFunds = Err("insufficient funds")

// Record existence conditions surfaced by the store.
var (
	ErrMarketplaceExists   = Err("marketplace already initialized")
	ErrMarketplaceNotFound = Err("marketplace not initialized")
	ErrBountyNotFound      = Err("bounty not found")
	ErrAgentNotFound       = Err("agent profile not found")
)

// ErrorCode returns the stable machine-readable code for an error kind,
// following the claim/submit/review surface of the API.
func ErrorCode(err error) string {
	switch err {
	case ErrTitleTooLong:
		return "TITLE_TOO_LONG"
	case ErrDescriptionTooLong:
		return "DESCRIPTION_TOO_LONG"
	case ErrRequirementsTooLong:
		return "REQUIREMENTS_TOO_LONG"
	case ErrInvalidReward:
		return "INVALID_REWARD"
	case ErrInvalidDeadline:
		return "INVALID_DEADLINE"
	case ErrCompletionDataTooLong:
		return "COMPLETION_DATA_TOO_LONG"
	case ErrURLTooLong:
		return "URL_TOO_LONG"
	case ErrReasonTooLong:
		return "REASON_TOO_LONG"
	case ErrBountyNotOpen:
		return "BOUNTY_NOT_OPEN"
	case ErrBountyNotInProgress:
		return "BOUNTY_NOT_IN_PROGRESS"
	case ErrBountyNotPendingReview:
		return "BOUNTY_NOT_PENDING_REVIEW"
	case ErrBountyExpired:
		return "BOUNTY_EXPIRED"
	case ErrNotAssignedAgent:
		return "NOT_ASSIGNED_AGENT"
	case ErrNotBountyCreator:
		return "NOT_BOUNTY_CREATOR"
	case ErrNotAuthority:
		return "NOT_AUTHORITY"
	case ErrMarketplaceExists:
		return "MARKETPLACE_ALREADY_INITIALIZED"
	case ErrInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case ErrMarketplaceNotFound:
		return "MARKETPLACE_NOT_INITIALIZED"
	case ErrBountyNotFound, ErrAgentNotFound:
		return "RESOURCE_NOT_FOUND"
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps an error kind to the HTTP status the REST surface replies
// with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch err {
	case ErrTitleTooLong, ErrDescriptionTooLong, ErrRequirementsTooLong,
		ErrInvalidReward, ErrInvalidDeadline,
		ErrCompletionDataTooLong, ErrURLTooLong, ErrReasonTooLong,
		ErrInsufficientFunds:
		return http.StatusBadRequest
	case ErrBountyNotOpen, ErrBountyNotInProgress, ErrBountyNotPendingReview,
		ErrBountyExpired, ErrMarketplaceExists:
		return http.StatusConflict
	case ErrNotAssignedAgent, ErrNotBountyCreator, ErrNotAuthority:
		return http.StatusForbidden
	case ErrBountyNotFound, ErrAgentNotFound, ErrMarketplaceNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
