package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveMimeType(t *testing.T) {
	r := New(zap.NewNop())

	tests := []struct {
		url  string
		want string
	}{
		{"file:///tmp/data.csv", "text/csv"},
		{"file:///tmp/data.JSON", "application/json"},
		{"file:///tmp/data.yaml", "application/x-yaml"},
		{"file:///tmp/data.yml", "application/x-yaml"},
		{"file:///tmp/notes.txt", "text/plain"},
		{"file:///tmp/readme.md", "text/markdown"},
		{"csv://warehouse/orders", "text/csv"},
		{"json://api/users", "application/json"},
		{"data:text/plain,hello", "text/plain"},
		{"data:text/csv;charset=utf-8,a%2Cb", "text/csv"},
		{"s3://bucket/blob", DefaultMimeType},
		{"://not a url", DefaultMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveMimeType(tt.url))
		})
	}
}

func TestResolveMimeType_FileSniffing(t *testing.T) {
	r := New(zap.NewNop())

	// No recognized extension: content sniffing kicks in.
	p := filepath.Join(t.TempDir(), "page")
	require.NoError(t, os.WriteFile(p, []byte("<!DOCTYPE html><html></html>"), 0o644))

	assert.Equal(t, "text/html", r.ResolveMimeType("file://"+p))
}

func TestResolveDataSet_File(t *testing.T) {
	r := New(zap.NewNop())

	p := filepath.Join(t.TempDir(), "data.csv")
	content := []byte("name,age\nalice,30\n")
	require.NoError(t, os.WriteFile(p, content, 0o644))

	ds, err := r.ResolveDataSet(context.Background(), "file://"+p)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", ds.MimeType())

	data, err := ds.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestResolveDataSet_FileLazy(t *testing.T) {
	r := New(zap.NewNop())

	// Resolution succeeds for a file that does not exist yet; only the
	// payload accessor touches the filesystem.
	p := filepath.Join(t.TempDir(), "late.csv")
	ds, err := r.ResolveDataSet(context.Background(), "file://"+p)
	require.NoError(t, err)

	_, err = ds.Bytes(context.Background())
	require.Error(t, err)

	require.NoError(t, os.WriteFile(p, []byte("a,b\n"), 0o644))

	data, err := ds.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n"), data)
}

func TestResolveDataSet_DataURL(t *testing.T) {
	r := New(zap.NewNop())

	ds, err := r.ResolveDataSet(context.Background(), "data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ds.MimeType())

	data, err := ds.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestResolveDataSet_MalformedDataURL(t *testing.T) {
	r := New(zap.NewNop())

	_, err := r.ResolveDataSet(context.Background(), "data:nocomma")
	assert.Error(t, err)
}

func TestResolveDataSet_OpaqueScheme(t *testing.T) {
	r := New(zap.NewNop())

	ds, err := r.ResolveDataSet(context.Background(), "csv://warehouse/orders")
	require.NoError(t, err)
	assert.Equal(t, "csv://warehouse/orders", ds.URL())
	assert.Equal(t, "text/csv", ds.MimeType())

	data, err := ds.Bytes(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}
