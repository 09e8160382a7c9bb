package usecase

import "errors"

// Códigos de error de dominio. Los handlers los traducen a estados HTTP.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeLeadNotFound        = "LEAD_NOT_FOUND"
	CodeLeadAlreadyAssigned = "LEAD_ALREADY_ASSIGNED"
	CodeLeadInvalidState    = "LEAD_INVALID_STATE"
	CodeReviewExists        = "REVIEW_ALREADY_EXISTS"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeProfileCreation     = "PROFILE_CREATION_ERROR"
	CodeProfileCheck        = "PROFILE_CHECK_ERROR"
	CodePaymentFailed       = "PAYMENT_FAILED"
	CodeUnknownAction       = "UNKNOWN_ACTION"

	CodeDatabase    = "DATABASE_ERROR"
	CodeIntegration = "INTEGRATION_ERROR"
	CodeNotConfig   = "NOT_CONFIGURED"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func domainErr(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg}
}

func technicalErr(code, msg string, err error) *TechnicalError {
	return &TechnicalError{Code: code, Message: msg, Err: err}
}
