// Package apierror provides standardized error response structures for the API
// plus the domain error taxonomy used by the fulfillment core. All errors
// returned to clients go through this package to ensure consistency and to
// prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Reason codes — machine-readable, stable. The UI uses them to decide whether
// a retry button makes sense (only CodeGatewayUnavailable and
// CodePartialFailure are candidates; an invalid transition never is).
const (
	CodeValidation            = "VALIDATION"
	CodeNotFound              = "NOT_FOUND"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodePartialFailure        = "PARTIAL_FAILURE"
	CodeGatewayUnavailable    = "GATEWAY_UNAVAILABLE"
	CodeInternal              = "INTERNAL"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail    string `json:"detail"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg, Code: CodeInternal}
}

// NewCoded builds an envelope with an explicit reason code.
func NewCoded(code, msg string) *APIError {
	return &APIError{
		Detail:    msg,
		Code:      code,
		Retryable: code == CodeGatewayUnavailable || code == CodePartialFailure,
	}
}

// ValidationError reports malformed or missing input, rejected before any
// mutation. Fully recoverable by the caller.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string { return e.Detail }

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

func NewValidationMsg(msg string) *ValidationError {
	return &ValidationError{Detail: msg}
}

// NotFoundError reports an absent document or ledger record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// LineShortage describes one demand line that failed the reservation check.
type LineShortage struct {
	ItemID    uuid.UUID `json:"item_id"`
	Needed    int       `json:"needed"`
	Available int       `json:"available"`
	NoRecord  bool      `json:"no_record"`
}

// InsufficientInventoryError is returned when one or more demand lines fail
// the reservation checker. The whole confirm is rejected; the ledger is
// untouched for every line in the batch.
type InsufficientInventoryError struct {
	WarehouseID uuid.UUID      `json:"warehouse_id"`
	Lines       []LineShortage `json:"lines"`
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %d line(s) in warehouse %s", len(e.Lines), e.WarehouseID)
}

// InvalidTransitionError is returned for any status transition not listed in
// the document's transition table.
type InvalidTransitionError struct {
	Document string `json:"document"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: illegal transition %s -> %s", e.Document, e.From, e.To)
}

func NewInvalidTransition(document, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{Document: document, From: from, To: to}
}

// PartialFailureError is surfaced when a multi-step orchestrated action failed
// partway through AND compensation could not fully restore prior state. The
// pipeline record persists every completed step so reconciliation tooling can
// resume or reverse it; this error names where the run stopped.
type PartialFailureError struct {
	PipelineID     uuid.UUID `json:"pipeline_id"`
	Action         string    `json:"action"`
	FailedStep     string    `json:"failed_step"`
	CompletedSteps []string  `json:"completed_steps"`
	CompensateErr  string    `json:"compensate_error,omitempty"`
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: step %q failed after %d completed step(s); manual reconciliation required (pipeline %s)",
		e.Action, e.FailedStep, len(e.CompletedSteps), e.PipelineID)
}

// GatewayError reports a failed call to an external collaborator (master
// data). Always retryable: the request itself was fine, the collaborator was
// not.
type GatewayError struct {
	Service string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func NewGateway(service string, err error) *GatewayError {
	return &GatewayError{Service: service, Err: err}
}

// CodeFor maps a domain error to its reason code. Unknown errors map to
// CodeInternal so nothing internal leaks to clients.
func CodeFor(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		ii *InsufficientInventoryError
		it *InvalidTransitionError
		pf *PartialFailureError
		ge *GatewayError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.As(err, &ii):
		return CodeInsufficientInventory
	case errors.As(err, &it):
		return CodeInvalidTransition
	case errors.As(err, &pf):
		return CodePartialFailure
	case errors.As(err, &ge):
		return CodeGatewayUnavailable
	default:
		return CodeInternal
	}
}
