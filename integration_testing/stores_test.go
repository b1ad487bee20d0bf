//go:build integration_test || all_tests

package integration_testing

import (
	"context"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/db"
	"github.com/2beens/activitystats/internal/snapshot"
	pkgtesting "github.com/2beens/activitystats/pkg/testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeRecords(n int) []activities.Record {
	records := make([]activities.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, activities.Record{
			"Name":     gofakeit.Sentence(3),
			"Type":     string(activities.AllTypes[i%len(activities.AllTypes)]),
			"Distance": gofakeit.Float64Range(1, 40),
			"Date":     gofakeit.Date().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return records
}

func (s *IntegrationTestSuite) TestStores_Redis() {
	t := s.T()
	ctx, rdb := pkgtesting.GetRedisClientAndCtx(t, s.redisPort)

	store := snapshot.NewRedisStore(rdb, "activitystats::snapshot::it")
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)

	records := fakeRecords(12)
	require.NoError(t, store.Save(ctx, snapshot.Snapshot{Activities: records}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, loaded.Activities)

	// last write wins
	require.NoError(t, store.Save(ctx, snapshot.Empty()))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Activities)
	assert.NotNil(t, loaded.Activities)
}

func (s *IntegrationTestSuite) TestStores_Postgres() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:   "localhost",
		DBPort:   s.pgPort,
		DBName:   testDBName,
		MaxConns: 2,
	})
	require.NoError(t, err)
	defer pool.Close()

	store := snapshot.NewPsqlStore(pool)
	require.NoError(t, store.InitSchema(ctx))

	records := fakeRecords(7)
	require.NoError(t, store.Save(ctx, snapshot.Snapshot{Activities: records}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, loaded.Activities)

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM activity_snapshot`).Scan(&rows))
	assert.Equal(t, 1, rows)
}
