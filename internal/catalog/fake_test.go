package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFake(t *testing.T) *Fake {
	t.Helper()
	f, err := NewFake(Latency{})
	require.NoError(t, err)
	return f
}

func TestFakeTrending(t *testing.T) {
	f := newTestFake(t)

	movies, err := f.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, movies, 5)

	ids := make([]int, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int{648878, 936108, 1078605, 1234821, 986056}, ids)
	assert.Equal(t, []int{37, 35, 80}, movies[0].GenreIDs)
	assert.Equal(t, "2025-07-16", movies[0].ReleaseDate)
}

func TestFakeSearch(t *testing.T) {
	f := newTestFake(t)

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"title case-insensitive", "smurfs", []int{936108}},
		{"overview match", "new mexico", []int{648878}},
		{"matches several", "mission", []int{936108, 1234821, 986056}},
		{"punctuation in title", "Thunderbolts*", []int{986056}},
		{"no match", "zzzz", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movies, err := f.Search(context.Background(), tt.query)
			require.NoError(t, err)
			got := []int{}
			for _, m := range movies {
				got = append(got, m.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFakeDetail(t *testing.T) {
	f := newTestFake(t)

	d, err := f.Detail(context.Background(), 648878)
	require.NoError(t, err)
	assert.Equal(t, "Eddington", d.Title)
	assert.Equal(t, int64(25000000), d.Budget)
	assert.Equal(t, 149, d.Runtime)
	assert.Equal(t, "Western, Comedy, Crime", d.GenresString())
	assert.Equal(t, "A24, Square Peg, 828 Productions", d.CompaniesString())
	assert.Equal(t, "", d.ProductionCompanies[2].LogoPath)
	assert.Nil(t, d.Collection)

	synth, err := f.Detail(context.Background(), 1078605)
	require.NoError(t, err)
	assert.Equal(t, "Weapons", synth.Title)
	assert.Equal(t, "Horror, Mystery", synth.GenresString())
	assert.Equal(t, "Not disclosed", synth.FormattedBudget())

	_, err = f.Detail(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFakeDetailIsACopy(t *testing.T) {
	f := newTestFake(t)
	d, err := f.Detail(context.Background(), 648878)
	require.NoError(t, err)
	d.Title = "changed"

	again, err := f.Detail(context.Background(), 648878)
	require.NoError(t, err)
	assert.Equal(t, "Eddington", again.Title)
}

func TestFakeSimilar(t *testing.T) {
	f := newTestFake(t)

	similar, err := f.Similar(context.Background(), 1234821)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, 986056, similar[0].ID)

	none, err := f.Similar(context.Background(), 1078605)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.Similar(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFakeLatencyHonorsContext(t *testing.T) {
	f, err := NewFake(Latency{Search: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = f.Search(ctx, "eddington")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
