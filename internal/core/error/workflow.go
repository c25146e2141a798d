package errx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the experience extraction workflow. Node code matches on
// these with errors.Is; the HTTP status travels alongside via AppError.
var (
	// ErrInputMissing - no input locator was supplied at all.
	ErrInputMissing = errors.New("no input provided")
	// ErrInputConflict - more than one of {file path, URL, raw text} was set.
	ErrInputConflict = errors.New("more than one input kind provided")
	// ErrUnsupportedMedia - a URL points at a media type no extraction path handles.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrNoDestination - validation found no destination at all in the extracted text.
	ErrNoDestination = errors.New("no destination found in input")

	// ErrUploadFailed - the remote file store reported a FAILED state.
	ErrUploadFailed = errors.New("file upload failed")
	// ErrUploadTimeout - the file never became ACTIVE within the poll ceiling.
	ErrUploadTimeout = errors.New("file upload timed out")

	// ErrRetriesExhausted - the gateway gave up after its retry budget.
	ErrRetriesExhausted = errors.New("llm call retries exhausted")
	// ErrSchemaMismatch - model output could not be coerced into the declared schema.
	ErrSchemaMismatch = errors.New("model output does not match schema")
	// ErrRepairExhausted - the repair loop ran out of attempts without valid JSON.
	ErrRepairExhausted = errors.New("json repair attempts exhausted")
)

// ClientFault wraps a caller-caused error (bad input) with a 400 status.
func ClientFault(err error, message string) *AppError {
	return New(err, http.StatusBadRequest, message)
}

// NotFound wraps a missing-resource error (e.g. input file path) with a 404 status.
func NotFound(err error, message string) *AppError {
	return New(err, http.StatusNotFound, message)
}

// Upstream wraps a failure of an external collaborator (LLM provider, file
// store) with a 502 status.
func Upstream(err error, message string) *AppError {
	return New(err, http.StatusBadGateway, message)
}

// IsClientFault reports whether the error chain carries a 4xx status.
func IsClientFault(err error) bool {
	s := StatusOf(err)
	return s >= 400 && s < 500
}
