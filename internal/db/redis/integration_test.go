//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/testutil"
)

func setupCatalog(t *testing.T, names ...string) *Store {
	t.Helper()
	ctx := context.Background()
	c := testutil.NewRedisContainer(ctx, t)

	s, err := NewStore(Config{Addrs: []string{c.Addr()}})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.WaitForReady(ctx, 30*time.Second))

	s.DeleteNamespace(ctx, ns)
	require.NoError(t, s.CreateNamespace(ctx, db.NewSchema(ns).MustBuild()))

	readyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	require.NoError(t, s.AwaitReady(readyCtx, ns))

	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, err := s.PutRecord(ctx, ns, record.Reconstruct("", n))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	visCtx, cancel2 := context.WithTimeout(ctx, 10*time.Second)
	defer cancel2()
	require.NoError(t, s.AwaitVisible(visCtx, ns, ids))
	return s
}

func TestIntegration_Scenarios(t *testing.T) {
	s := setupCatalog(t, "Rio", "Rome")
	ctx := context.Background()

	t.Run("exact", func(t *testing.T) {
		res, err := s.Search(ctx, ns, demoRequest("rio"))
		require.NoError(t, err)
		assert.Contains(t, append(res.HitNames(), res.OptionNames()...), "Rio")
	})

	t.Run("typo", func(t *testing.T) {
		res, err := s.Search(ctx, ns, demoRequest("riq"))
		require.NoError(t, err)
		assert.Contains(t, res.OptionNames(), "Rio")
	})

	t.Run("nothing", func(t *testing.T) {
		res, err := s.Search(ctx, ns, demoRequest("xyz"))
		require.NoError(t, err)
		assert.Empty(t, res.Hits)
		assert.Empty(t, res.Options)
	})
}

func TestIntegration_GetAndSearchByName(t *testing.T) {
	s := setupCatalog(t, "Amsterdam", "Rotterdam")
	ctx := context.Background()

	recs, err := s.SearchByName(ctx, ns, "dam", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	got, err := s.GetRecord(ctx, ns, recs[0].ID())
	require.NoError(t, err)
	assert.Equal(t, recs[0].Name(), got.Name())
}

func TestIntegration_RenameKeepsSharedCompletion(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()

	_, err := s.PutRecord(ctx, ns, record.Reconstruct("1", "Rio"))
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, ns, record.Reconstruct("2", "Rio"))
	require.NoError(t, err)
	_, err = s.PutRecord(ctx, ns, record.Reconstruct("2", "Paris"))
	require.NoError(t, err)

	res, err := s.Search(ctx, ns, demoRequest("riq"))
	require.NoError(t, err)
	require.Contains(t, res.OptionNames(), "Rio")
	for _, o := range res.Options {
		if o.Record.Name() == "Rio" {
			assert.Equal(t, "1", o.Record.ID())
		}
	}

	_, err = s.PutRecord(ctx, ns, record.Reconstruct("1", "Lima"))
	require.NoError(t, err)
	res, err = s.Search(ctx, ns, demoRequest("riq"))
	require.NoError(t, err)
	assert.NotContains(t, res.OptionNames(), "Rio")
}
