package convert

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/convreg/convreg/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVToJSON(t *testing.T) {
	c := CSVToJSON()
	src := domain.NewBytesDataset("csv://data/a", "text/csv",
		[]byte("name,age\nalice,30\nbob,25\n"))

	out, err := c.Fn(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "application/json", out.MimeType())
	assert.Equal(t, "csv://data/a", out.URL())

	data, err := out.Bytes(context.Background())
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Equal(t, []map[string]string{
		{"name": "alice", "age": "30"},
		{"name": "bob", "age": "25"},
	}, records)
}

func TestCSVToJSON_Empty(t *testing.T) {
	c := CSVToJSON()
	src := domain.NewBytesDataset("csv://data/a", "text/csv", nil)

	out, err := c.Fn(context.Background(), src)
	require.NoError(t, err)

	data, err := out.Bytes(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestCSVToJSON_HeaderOnly(t *testing.T) {
	c := CSVToJSON()
	src := domain.NewBytesDataset("csv://data/a", "text/csv", []byte("name,age\n"))

	out, err := c.Fn(context.Background(), src)
	require.NoError(t, err)

	data, err := out.Bytes(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestCSVToJSON_Malformed(t *testing.T) {
	c := CSVToJSON()
	src := domain.NewBytesDataset("csv://data/a", "text/csv",
		[]byte("a,\"unterminated\n"))

	_, err := c.Fn(context.Background(), src)
	assert.Error(t, err)
}

func TestJSONToYAML(t *testing.T) {
	c := JSONToYAML()
	src := domain.NewBytesDataset("json://data/a", "application/json",
		[]byte(`{"name":"alice","age":30}`))

	out, err := c.Fn(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "application/x-yaml", out.MimeType())

	data, err := out.Bytes(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: alice")
	assert.Contains(t, string(data), "age: 30")
}

func TestJSONToYAML_Malformed(t *testing.T) {
	c := JSONToYAML()
	src := domain.NewBytesDataset("json://data/a", "application/json", []byte("{"))

	_, err := c.Fn(context.Background(), src)
	assert.Error(t, err)
}

func TestYAMLToJSON(t *testing.T) {
	c := YAMLToJSON()
	src := domain.NewBytesDataset("yaml://data/a", "application/x-yaml",
		[]byte("name: alice\nage: 30\n"))

	out, err := c.Fn(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "application/json", out.MimeType())

	data, err := out.Bytes(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"alice","age":30}`, string(data))
}

func TestRoundTrip(t *testing.T) {
	toYAML := JSONToYAML()
	toJSON := YAMLToJSON()

	original := `[{"name":"alice","tags":["a","b"]},{"name":"bob","tags":[]}]`
	src := domain.NewBytesDataset("json://data/a", "application/json", []byte(original))

	asYAML, err := toYAML.Fn(context.Background(), src)
	require.NoError(t, err)

	back, err := toJSON.Fn(context.Background(), asYAML)
	require.NoError(t, err)

	data, err := back.Bytes(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, original, string(data))
}
