package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrNotOwner          ErrCode = "NOT_OWNER"
	ErrProfileIncomplete ErrCode = "PROFILE_INCOMPLETE"
	ErrGradeNotAllowed   ErrCode = "GRADE_NOT_ALLOWED"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrWindowClosed      ErrCode = "WINDOW_CLOSED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam lifecycle ────────────────────────────────────────────────
	ErrAlreadyAttempted ErrCode = "ALREADY_ATTEMPTED"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrSessionNotActive ErrCode = "SESSION_NOT_ACTIVE"
	ErrSessionExpired   ErrCode = "SESSION_EXPIRED"
	ErrSubmitInProgress ErrCode = "SUBMIT_IN_PROGRESS"
	ErrNoQuestionBank   ErrCode = "NO_QUESTION_BANK"

	// ─── Payments ──────────────────────────────────────────────────────
	ErrAlreadyEnrolled    ErrCode = "ALREADY_ENROLLED"
	ErrInvalidSignature   ErrCode = "INVALID_SIGNATURE"
	ErrPaymentNotPending  ErrCode = "PAYMENT_NOT_PENDING"
	ErrGatewayUnavailable ErrCode = "GATEWAY_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotOwner:
		return "This resource belongs to another user."
	case ErrProfileIncomplete:
		return "Please complete your profile before continuing."
	case ErrGradeNotAllowed:
		return "Your grade is outside the allowed range for this exam."
	case ErrNotEnrolled:
		return "You are not enrolled in this competition."
	case ErrWindowClosed:
		return "This exam is not open at the moment."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Exam lifecycle ────────────────────────────────────────────────
	case ErrAlreadyAttempted:
		return "You have already attempted this test."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrSessionNotActive:
		return "This exam session is no longer active."
	case ErrSessionExpired:
		return "This exam session has expired."
	case ErrSubmitInProgress:
		return "This session is already being submitted."
	case ErrNoQuestionBank:
		return "No question bank is assigned for your grade."

	// ─── Payments ──────────────────────────────────────────────────────
	case ErrAlreadyEnrolled:
		return "You are already enrolled in this competition."
	case ErrInvalidSignature:
		return "The payment signature could not be verified."
	case ErrPaymentNotPending:
		return "This payment has already been finalized."
	case ErrGatewayUnavailable:
		return "The payment gateway is unavailable. Please try again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
