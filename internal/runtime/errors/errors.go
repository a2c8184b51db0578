package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrMessageRequired    = sterrors.New("mozdef: message is required")
	ErrUnknownField       = sterrors.New("mozdef: unknown message field")
	ErrReservedField      = sterrors.New("mozdef: field is reserved for the receiving system")
	ErrFieldType          = sterrors.New("mozdef: wrong value type for message field")
	ErrPathwayRequired    = sterrors.New("mozdef: pathway is required")
	ErrPathwayClosed      = sterrors.New("mozdef: pathway is closed")
	ErrUnknownPathway     = sterrors.New("mozdef: unknown pathway")
	ErrPublisherRequired  = sterrors.New("mozdef: publisher is required")
	ErrTopicRequired      = sterrors.New("mozdef: topic is required")
	ErrURLRequired        = sterrors.New("mozdef: url is required")
	ErrQueueNameRequired  = sterrors.New("mozdef: queue name is required")
	ErrConfigRequired     = sterrors.New("mozdef: config is required")
	ErrLoggerRequired     = sterrors.New("mozdef: logger is required")
	ErrEnvironmentMissing = sterrors.New("mozdef: environment is required")
)

// ConfigurationError reports a required environment or configuration value
// that could not be resolved. It is raised while constructing a pathway or a
// message, never during delivery.
type ConfigurationError struct {
	Key    string
	Reason string
	Cause  error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mozdef: configuration %s: %s: %v", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("mozdef: configuration %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a message that failed a required-field or
// allowed-value check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "mozdef: validation failed: " + e.Reason
	}
	return fmt.Sprintf("mozdef: validation failed on %s: %s", e.Field, e.Reason)
}

// SizeLimitError reports a serialized body larger than a pathway accepts.
type SizeLimitError struct {
	Size  int
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("mozdef: message length of %d is over the maximum allowed message size of %d", e.Size, e.Limit)
}

// DeliveryError wraps a transport-level failure reported by a pathway backend.
type DeliveryError struct {
	Pathway string
	Op      string
	Cause   error
}

func (e *DeliveryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("mozdef: message failed to send to %s (%s) due to %v", e.Pathway, e.Op, e.Cause)
	}
	return fmt.Sprintf("mozdef: message failed to send to %s due to %v", e.Pathway, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// ResponseStatusError is returned by blocking HTTP sends that receive a
// status other than 200.
type ResponseStatusError struct {
	URL        string
	StatusCode int
}

func (e *ResponseStatusError) Error() string {
	return fmt.Sprintf("mozdef: POST to %s returned %d status code", e.URL, e.StatusCode)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return sterrors.As(err, &target)
}

// IsDelivery reports whether err is, or wraps, a DeliveryError or a
// ResponseStatusError.
func IsDelivery(err error) bool {
	var de *DeliveryError
	if sterrors.As(err, &de) {
		return true
	}
	var rs *ResponseStatusError
	return sterrors.As(err, &rs)
}

// Kind returns a short, stable label for err suitable for metric labels.
func Kind(err error) string {
	if err == nil {
		return "none"
	}
	var (
		ce *ConfigurationError
		ve *ValidationError
		se *SizeLimitError
		de *DeliveryError
		rs *ResponseStatusError
	)
	switch {
	case sterrors.As(err, &ve):
		return "validation"
	case sterrors.As(err, &se):
		return "size_limit"
	case sterrors.As(err, &rs):
		return "response_status"
	case sterrors.As(err, &de):
		return "delivery"
	case sterrors.As(err, &ce):
		return "configuration"
	case sterrors.Is(err, ErrPathwayClosed):
		return "closed"
	default:
		return "other"
	}
}
