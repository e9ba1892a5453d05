package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is a process failure tag. Values are kebab-case and travel
// unchanged to the workflow engine as BPMN error codes.
type ErrorCode string

const (
	// not found
	ErrCodeParkingSpaceNotFound ErrorCode = "parkingspace-not-found"
	ErrCodeApplicantNotFound    ErrorCode = "applicant-not-found"
	ErrCodeNoOffer              ErrorCode = "no-offer"
	ErrCodeNoListing            ErrorCode = "no-listing"
	ErrCodeNoContact            ErrorCode = "no-contact"
	ErrCodeNoApplicants         ErrorCode = "no-applicants"
	ErrCodeNotFound             ErrorCode = "not-found"

	// eligibility
	ErrCodeApplicantNotTenant         ErrorCode = "applicant-not-tenant"
	ErrCodeNotAllowedToRentAdditional ErrorCode = "not-allowed-to-rent-additional"
	ErrCodeNoContractInTheArea        ErrorCode = "no-contract-in-the-area"
	ErrCodeNotAParkingSpace           ErrorCode = "not-a-parking-space"
	ErrCodeParkingSpaceNotInternal    ErrorCode = "parkingspace-not-internal"
	ErrCodeApplicationRejected        ErrorCode = "application-rejected"
	ErrCodeInvalidInput               ErrorCode = "invalid-input"

	// conflict / state
	ErrCodeApplicantAlreadyExists ErrorCode = "applicant-already-exists"
	ErrCodeListingNotExpired      ErrorCode = "listing-not-expired"
	ErrCodeListingHasActiveOffer  ErrorCode = "listing-has-active-offer"
	ErrCodeOfferInProgress        ErrorCode = "offer-in-progress"

	// adapter failures
	ErrCodeCloseOffer            ErrorCode = "close-offer"
	ErrCodeGetOtherOffers        ErrorCode = "get-other-offers"
	ErrCodeGetContact            ErrorCode = "get-contact"
	ErrCodeUpdateApplicantStatus ErrorCode = "update-applicant-status"
	ErrCodeCreateOffer           ErrorCode = "create-offer"
	ErrCodeUnknown               ErrorCode = "unknown"
)

const (
	CategoryNotFound    = "not-found"
	CategoryEligibility = "eligibility"
	CategoryConflict    = "conflict"
	CategoryAdapter     = "adapter"
)

var defaultHTTPStatus = map[ErrorCode]int{
	ErrCodeParkingSpaceNotFound: http.StatusNotFound,
	ErrCodeApplicantNotFound:    http.StatusNotFound,
	ErrCodeNoOffer:              http.StatusNotFound,
	ErrCodeNoListing:            http.StatusNotFound,
	ErrCodeNoContact:            http.StatusNotFound,
	ErrCodeNoApplicants:         http.StatusNotFound,
	ErrCodeNotFound:             http.StatusNotFound,

	ErrCodeApplicantNotTenant:         http.StatusForbidden,
	ErrCodeNotAllowedToRentAdditional: http.StatusBadRequest,
	ErrCodeNoContractInTheArea:        http.StatusBadRequest,
	ErrCodeNotAParkingSpace:           http.StatusBadRequest,
	ErrCodeParkingSpaceNotInternal:    http.StatusBadRequest,
	ErrCodeApplicationRejected:        http.StatusBadRequest,
	ErrCodeInvalidInput:               http.StatusBadRequest,

	ErrCodeApplicantAlreadyExists: http.StatusConflict,
	ErrCodeListingNotExpired:      http.StatusBadRequest,
	ErrCodeListingHasActiveOffer:  http.StatusConflict,
	ErrCodeOfferInProgress:        http.StatusConflict,

	ErrCodeCloseOffer:            http.StatusInternalServerError,
	ErrCodeGetOtherOffers:        http.StatusInternalServerError,
	ErrCodeGetContact:            http.StatusInternalServerError,
	ErrCodeUpdateApplicantStatus: http.StatusInternalServerError,
	ErrCodeCreateOffer:           http.StatusInternalServerError,
	ErrCodeUnknown:               http.StatusInternalServerError,
}

// DefaultHTTPStatus returns the status a process reports for code.
func DefaultHTTPStatus(code ErrorCode) int {
	if status, ok := defaultHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsKnown reports whether code belongs to the taxonomy.
func IsKnown(code ErrorCode) bool {
	_, ok := defaultHTTPStatus[code]
	return ok
}

type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"httpStatus"`
	Retryable  bool                   `json:"retryable"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// New builds a StandardError for code with its default HTTP status.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:       code,
		Message:    message,
		HTTPStatus: DefaultHTTPStatus(code),
		Timestamp:  time.Now().UTC(),
	}
}

// Wrap builds a StandardError carrying err as details.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	e := New(code, message)
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewInvalidInputError(details string) *StandardError {
	e := New(ErrCodeInvalidInput, "Job variables failed validation")
	e.Details = details
	return e
}

func NewExternalServiceError(service string, err error) *StandardError {
	e := Wrap(ErrCodeUnknown, fmt.Sprintf("External service '%s' error", service), err)
	e.Retryable = true
	return e
}

// ConvertToBPMNError maps a StandardError onto the engine's error event.
// Process failures never retry; only transport errors are retryable.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := 0
	if stdErr.Retryable {
		retries = 3
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"httpStatus":        stdErr.HTTPStatus,
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeParkingSpaceNotFound, ErrCodeApplicantNotFound, ErrCodeNoOffer,
		ErrCodeNoListing, ErrCodeNoContact, ErrCodeNoApplicants, ErrCodeNotFound:
		return CategoryNotFound
	case ErrCodeApplicantNotTenant, ErrCodeNotAllowedToRentAdditional, ErrCodeNoContractInTheArea,
		ErrCodeNotAParkingSpace, ErrCodeParkingSpaceNotInternal, ErrCodeInvalidInput:
		return CategoryEligibility
	case ErrCodeApplicantAlreadyExists, ErrCodeListingNotExpired, ErrCodeApplicationRejected,
		ErrCodeListingHasActiveOffer, ErrCodeOfferInProgress:
		return CategoryConflict
	default:
		return CategoryAdapter
	}
}
