package extractor

import "fmt"

// Reason identifies why a page could not be classified.
type Reason string

const (
	ReasonMarkerNotFound    Reason = "marker_not_found"
	ReasonEndMarkerNotFound Reason = "end_marker_not_found"
	ReasonInvalidJSON       Reason = "invalid_json"
	ReasonMissingField      Reason = "missing_field"
	ReasonUnknownMediaType  Reason = "unknown_media_type"
)

// ExtractionError is returned by Classify for every page it cannot turn into
// a media record.
type ExtractionError struct {
	Reason Reason
	// Detail names the missing field or the unrecognized discriminant.
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction failed (%s)", e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches any ExtractionError with the same Reason, so callers can write
// errors.Is(err, extractor.ErrUnknownMediaType).
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// Sentinels for errors.Is comparisons
var (
	ErrMarkerNotFound    = &ExtractionError{Reason: ReasonMarkerNotFound}
	ErrEndMarkerNotFound = &ExtractionError{Reason: ReasonEndMarkerNotFound}
	ErrInvalidJSON       = &ExtractionError{Reason: ReasonInvalidJSON}
	ErrMissingField      = &ExtractionError{Reason: ReasonMissingField}
	ErrUnknownMediaType  = &ExtractionError{Reason: ReasonUnknownMediaType}
)

func missingField(path string) *ExtractionError {
	return &ExtractionError{Reason: ReasonMissingField, Detail: path}
}
