package domain

import "fmt"

// UnreachableTargetError reports that no conversion chain exists from
// the mime types known for a URL to the requested target.
type UnreachableTargetError struct {
	URL      string
	MimeType string
}

func (e *UnreachableTargetError) Error() string {
	return fmt.Sprintf("no conversion chain from %s to %s", e.URL, e.MimeType)
}

// PayloadTypeError reports a payload that cannot be coerced to bytes.
type PayloadTypeError struct {
	URL      string
	MimeType string
}

func (e *PayloadTypeError) Error() string {
	return fmt.Sprintf("payload of %s (%s) is not byte-like", e.URL, e.MimeType)
}
