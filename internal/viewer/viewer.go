// Package viewer implements the pseudo mime-type encoding for viewer
// labels. A viewer is addressed like any other conversion target by
// mapping its human-readable label into a reserved mime-type form.
package viewer

import (
	"net/url"
	"strings"
)

const prefix = "application/x-viewer;label="

// MimeType encodes a viewer label into its pseudo mime type. The
// encoding is reversible for any label, including empty and
// whitespace-heavy ones.
func MimeType(label string) string {
	return prefix + url.QueryEscape(label)
}

// Label decodes a pseudo mime type back into a viewer label. The
// second return is false when mimeType is not viewer-encoded.
func Label(mimeType string) (string, bool) {
	escaped, ok := strings.CutPrefix(mimeType, prefix)
	if !ok {
		return "", false
	}
	label, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", false
	}
	return label, true
}

// IsViewer reports whether mimeType belongs to the viewer namespace.
func IsViewer(mimeType string) bool {
	return strings.HasPrefix(mimeType, prefix)
}
