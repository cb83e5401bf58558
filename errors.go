package studycompanion

import "errors"

var (
	ErrNoJSONFound            = errors.New("no JSON object found in model response")
	ErrMalformedJSON          = errors.New("malformed JSON in model response")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrBusy                   = errors.New("a generation request is already in progress")
	ErrNoStudyPlan            = errors.New("no active study plan")
	ErrNotFound               = errors.New("not found")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// ExtractionKind names the way an extraction failed.
type ExtractionKind string

const (
	KindNoJSONFound   ExtractionKind = "NoJsonFound"
	KindMalformedJSON ExtractionKind = "MalformedJson"
)

// ExtractionError reports why a model response could not be turned into a
// record. It matches ErrNoJSONFound or ErrMalformedJSON under errors.Is.
type ExtractionError struct {
	Kind ExtractionKind
	Err  error // underlying parse error, if any
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool {
	switch target {
	case ErrNoJSONFound:
		return e.Kind == KindNoJSONFound
	case ErrMalformedJSON:
		return e.Kind == KindMalformedJSON
	}
	return false
}
