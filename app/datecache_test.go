package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dexten32/accuscanner/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDates(n int) []string {
	out := make([]string, n)
	base := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out[i] = base.AddDate(0, 0, -i).Format("2006-01-02")
	}
	return out
}

func TestDatesFetchesOnceWhileFresh(t *testing.T) {
	fetches := 0
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		fetches++
		return testDates(3), nil
	})

	first, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)
	second, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)

	assert.Equal(t, 1, fetches, "second read should be served from cache")
	assert.Equal(t, first, second)
	assert.Equal(t, testDates(3), first)
}

func TestDatesRefreshesAfterTTL(t *testing.T) {
	fetches := 0
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		fetches++
		return testDates(3), nil
	})

	now := time.Now()
	dc.now = func() time.Time { return now }

	_, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)

	now = now.Add(dateCacheTTL + time.Minute)
	_, err = dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)

	assert.Equal(t, 2, fetches, "expired cache should refetch")
}

func TestInvalidateForcesRefresh(t *testing.T) {
	fetches := 0
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		fetches++
		return testDates(fetches), nil
	})

	first, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)
	require.Len(t, first, 1)

	dc.Invalidate()

	second, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)
	assert.Len(t, second, 2, "post-invalidation read should see fresh data")
	assert.Equal(t, 2, fetches)
}

func TestDatesSlicedByPlanWindow(t *testing.T) {
	all := testDates(40)
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		return all, nil
	})

	free, err := dc.Dates(context.Background(), models.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, all[:7], free, "FREE sees the 7 most recent dates")

	trial, err := dc.Dates(context.Background(), models.PlanTrial)
	require.NoError(t, err)
	assert.Equal(t, all[:30], trial)

	pro, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, all, pro, "PRO sees the full history")

	unknown, err := dc.Dates(context.Background(), models.Plan("LEGACY"))
	require.NoError(t, err)
	assert.Equal(t, all[:7], unknown, "unknown plans get the FREE window")
}

func TestDatesWindowLargerThanHistory(t *testing.T) {
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		return testDates(3), nil
	})

	free, err := dc.Dates(context.Background(), models.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, testDates(3), free)
}

func TestDatesPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("db unreachable")
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		return nil, fetchErr
	})

	_, err := dc.Dates(context.Background(), models.PlanPro)
	assert.ErrorIs(t, err, fetchErr)
}

func TestDatesReturnsCopy(t *testing.T) {
	dc := NewDateCache(func(ctx context.Context) ([]string, error) {
		return testDates(3), nil
	})

	first, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := dc.Dates(context.Background(), models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, testDates(3), second, "caller mutation must not leak into the cache")
}
