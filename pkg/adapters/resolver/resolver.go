// Package resolver maps raw URLs to their initial dataset and mime
// type. Resolution is deterministic: extension lookup first, then
// per-scheme defaults, then content sniffing for local files.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/convreg/convreg/internal/domain"
	"go.uber.org/zap"
)

// DefaultMimeType is used when nothing better can be determined.
const DefaultMimeType = "application/octet-stream"

// extensionMimeTypes maps path extensions to mime types.
var extensionMimeTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".yaml": "application/x-yaml",
	".yml":  "application/x-yaml",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".xml":  "application/xml",
}

// schemeMimeTypes maps URL schemes to their default mime types for
// URLs whose path carries no recognized extension.
var schemeMimeTypes = map[string]string{
	"csv":  "text/csv",
	"json": "application/json",
}

// Resolver implements URLResolver.
type Resolver struct {
	logger *zap.Logger
}

// New creates a URL resolver.
func New(logger *zap.Logger) *Resolver {
	return &Resolver{
		logger: logger,
	}
}

// ResolveMimeType sniffs the mime type of a URL without registration
// side effects, so it can seed reachability queries directly.
func (r *Resolver) ResolveMimeType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultMimeType
	}

	if ext := path.Ext(u.Path); ext != "" {
		if mimeType, ok := extensionMimeTypes[strings.ToLower(ext)]; ok {
			return mimeType
		}
	}

	if mimeType, ok := schemeMimeTypes[u.Scheme]; ok {
		return mimeType
	}

	if u.Scheme == "data" {
		if mediaType, _, ok := strings.Cut(u.Opaque, ","); ok && mediaType != "" {
			return trimMimeParams(mediaType)
		}
	}

	if u.Scheme == "file" {
		if data, err := os.ReadFile(u.Path); err == nil {
			return trimMimeParams(http.DetectContentType(data))
		}
	}

	return DefaultMimeType
}

// ResolveDataSet resolves a URL to a dataset with a lazy payload.
func (r *Resolver) ResolveDataSet(ctx context.Context, rawURL string) (domain.Dataset, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to parse URL: %w", err)
	}

	mimeType := r.ResolveMimeType(rawURL)

	r.logger.Debug("resolved URL",
		zap.String("url", rawURL),
		zap.String("scheme", u.Scheme),
		zap.String("mime_type", mimeType))

	switch u.Scheme {
	case "file":
		filePath := u.Path
		return domain.NewDataset(rawURL, mimeType, func(ctx context.Context) (interface{}, error) {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
			}
			return data, nil
		}), nil
	case "data":
		payload, err := decodeDataURL(u)
		if err != nil {
			return domain.Dataset{}, err
		}
		return domain.NewBytesDataset(rawURL, mimeType, payload), nil
	default:
		// Opaque locator: the payload lives wherever the URL points
		// and is materialized by whoever consumes it. The registry
		// only needs identity and mime type.
		return domain.NewBytesDataset(rawURL, mimeType, nil), nil
	}
}

// decodeDataURL extracts the inline payload of a data: URL. Only the
// unencoded form is supported; base64 payloads are rejected.
func decodeDataURL(u *url.URL) ([]byte, error) {
	_, payload, ok := strings.Cut(u.Opaque, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return []byte(decoded), nil
}

// trimMimeParams strips parameters like "; charset=utf-8".
func trimMimeParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		return strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}
