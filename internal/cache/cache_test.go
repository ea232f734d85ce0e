package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rider-enricher/internal/cache/redis"
	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

func TestOpenBackends(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	dir := t.TempDir()

	cases := map[string]Config{
		BackendMemory: {Backend: BackendMemory},
		BackendFS:     {Backend: BackendFS, Dir: filepath.Join(dir, "files")},
		BackendSQLite: {Backend: BackendSQLite, SQLitePath: filepath.Join(dir, "riders.db")},
		"default":     {Dir: filepath.Join(dir, "default")},
		BackendRedis:  {Backend: BackendRedis, Redis: redis.Config{Address: mr.Addr()}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := Open(ctx, cfg)
			require.NoError(t, err)
			defer store.Close()

			payload := enricher.Payload{Participations: []string{"Milano-Sanremo"}, Fetched: enricher.Flags{Participations: true}}
			require.NoError(t, store.Put(ctx, "mathieu-van-der-poel", payload, time.Hour))
			entry, ok, err := store.Get(ctx, "mathieu-van-der-poel")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, payload.Participations, entry.Payload.Participations)

			require.NoError(t, store.Purge(ctx))
			_, ok, err = store.Get(ctx, "mathieu-van-der-poel")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Backend: "bolt"})
	require.ErrorContains(t, err, "unknown cache backend")
}
