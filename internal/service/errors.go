package service

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map these onto HTTP status codes and response
// error codes; services never speak HTTP themselves.
var (
	ErrProfileIncomplete  = errors.New("profile is missing or incomplete")
	ErrGradeNotAllowed    = errors.New("grade outside allowed range")
	ErrNotEnrolled        = errors.New("enrollment is not confirmed")
	ErrWindowClosed       = errors.New("exam window is closed")
	ErrRegistrationOver   = errors.New("registration window is closed")
	ErrAlreadyEnrolled    = errors.New("enrollment already confirmed")
	ErrAlreadyAttempted   = errors.New("mock test already attempted")
	ErrAlreadySubmitted   = errors.New("exam already submitted")
	ErrNoQuestionBank     = errors.New("no question bank assigned for grade")
	ErrExamNotFound       = errors.New("exam not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNotOwner           = errors.New("resource owned by another user")
	ErrSessionNotActive   = errors.New("session is not active")
	ErrSessionExpired     = errors.New("prior session expired")
	ErrSubmitInProgress   = errors.New("session is already being submitted")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrPaymentNotPending  = errors.New("payment already finalized")
	ErrGatewayFailed      = errors.New("payment gateway request failed")
)

// gradeRangeErr wraps ErrGradeNotAllowed with a message naming the valid
// range, so the client can show the student what grades are admitted.
func gradeRangeErr(grade, minGrade, maxGrade int) error {
	return fmt.Errorf("%w: grade %d is outside the allowed range %d-%d", ErrGradeNotAllowed, grade, minGrade, maxGrade)
}
