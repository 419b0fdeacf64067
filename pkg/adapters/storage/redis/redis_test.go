package redis

import (
	"context"
	"testing"

	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/viewer"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// deadStore returns a store whose client points at a closed port, so
// every command fails. Anything that happens before the first command
// is still observable.
func deadStore(t *testing.T) *Store {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{
		Addr:       "127.0.0.1:1",
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, 0, zap.NewNop())
}

// A viewer dataset's accessor is a deferred action: publishing it must
// index the dataset without running the action.
func TestPublish_DeferredAccessorNotInvoked(t *testing.T) {
	s := deadStore(t)

	invocations := 0
	ds := domain.NewDataset("csv://data/a", viewer.MimeType("Table"), func(ctx context.Context) (interface{}, error) {
		invocations++
		return nil, nil
	})

	_, err := s.Publish(context.Background(), ds)
	require.Error(t, err)
	assert.Zero(t, invocations)
}

func TestPublish_LazyFilePayloadNotRead(t *testing.T) {
	s := deadStore(t)

	reads := 0
	ds := domain.NewDataset("file:///tmp/data.csv", "text/csv", func(ctx context.Context) (interface{}, error) {
		reads++
		return []byte("a,b\n"), nil
	})

	_, err := s.Publish(context.Background(), ds)
	require.Error(t, err)
	assert.Zero(t, reads)
}

func TestDatasetKey(t *testing.T) {
	assert.Equal(t, "convreg:datasets:csv://data/a", datasetKey("csv://data/a"))
}
