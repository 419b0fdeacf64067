package domain

import (
	"context"
)

// PayloadFunc produces the payload of a dataset on demand. For viewer
// datasets the returned value is nil and only completion matters.
type PayloadFunc func(ctx context.Context) (interface{}, error)

// Dataset is a named, typed unit of data identified by a URL and a
// mime type. The payload is deferred: nothing is read, converted or
// rendered until Payload is called.
type Dataset struct {
	url          string
	mimeType     string
	payload      PayloadFunc
	materialized bool
}

// NewDataset creates a dataset with a lazy payload accessor. The
// accessor may carry deferred work (file reads, viewer actions) and
// must only run when the consumer asks for the payload.
func NewDataset(url, mimeType string, payload PayloadFunc) Dataset {
	return Dataset{
		url:      url,
		mimeType: mimeType,
		payload:  payload,
	}
}

// NewBytesDataset creates a dataset over an already materialized payload.
func NewBytesDataset(url, mimeType string, data []byte) Dataset {
	return Dataset{
		url:      url,
		mimeType: mimeType,
		payload: func(ctx context.Context) (interface{}, error) {
			return data, nil
		},
		materialized: true,
	}
}

// Materialized reports whether the payload is an in-memory value that
// can be read without triggering deferred work.
func (d Dataset) Materialized() bool {
	return d.materialized
}

// URL returns the locator the dataset was resolved from.
func (d Dataset) URL() string {
	return d.url
}

// MimeType returns the representation tag of the dataset.
func (d Dataset) MimeType() string {
	return d.mimeType
}

// Payload invokes the payload accessor.
func (d Dataset) Payload(ctx context.Context) (interface{}, error) {
	if d.payload == nil {
		return nil, nil
	}
	return d.payload(ctx)
}

// Bytes invokes the payload accessor and coerces the result to a byte
// slice. String payloads are converted; anything else is an error.
func (d Dataset) Bytes(ctx context.Context) ([]byte, error) {
	v, err := d.Payload(ctx)
	if err != nil {
		return nil, err
	}
	switch p := v.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	case nil:
		return nil, nil
	default:
		return nil, &PayloadTypeError{URL: d.url, MimeType: d.mimeType}
	}
}
