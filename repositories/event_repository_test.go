package repositories

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"raceday-api/models"
	"raceday-api/testutils"
)

var now = time.Date(2024, time.August, 1, 12, 0, 0, 0, time.UTC)

func eventNames(items []models.EventSummary) []string {
	names := make([]string, 0, len(items))
	for _, e := range items {
		names = append(names, e.Name)
	}
	return names
}

func boolPtr(b bool) *bool { return &b }

func TestEventRepositoryCreateRecomputesActive(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	d42 := testutils.CreateDistance(t, db, 42)

	tests := []struct {
		name     string
		start    time.Time
		supplied bool
		want     bool
	}{
		{"future event flagged inactive by caller", now.Add(time.Hour), false, true},
		{"past event flagged active by caller", now.Add(-time.Hour), true, false},
		{"event starting now", now, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &models.Event{
				Name:          tt.name,
				StartDatetime: tt.start,
				Location:      "Kyiv",
				EventType:     models.EventTypeRunning,
				Organiser:     "New Run",
				IsActive:      tt.supplied,
			}
			require.NoError(t, repo.Create(ctx, e, []uint{d42.ID}, now))

			stored, err := repo.FindByID(ctx, e.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.IsActive)
			assert.Equal(t, []int{42}, stored.DistanceKms())
		})
	}
}

func TestEventRepositoryUpdateRecomputesActive(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	d21 := testutils.CreateDistance(t, db, 21)
	d42 := testutils.CreateDistance(t, db, 42)

	e := &models.Event{Name: "Marathon", StartDatetime: now.Add(time.Hour), Location: "Kyiv", EventType: models.EventTypeRunning, Organiser: "New Run"}
	require.NoError(t, repo.Create(ctx, e, []uint{d42.ID}, now))
	assert.True(t, e.IsActive)

	// two hours later the same event is saved again without touching the start
	later := now.Add(2 * time.Hour)
	e.Description = "updated"
	require.NoError(t, repo.Update(ctx, e, []uint{d21.ID, d42.ID}, later))

	stored, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "updated", stored.Description)
	assert.Equal(t, []int{21, 42}, stored.DistanceKms())
}

func TestEventRepositoryCreateUnknownDistance(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)

	e := &models.Event{Name: "Marathon", StartDatetime: now.Add(time.Hour), Location: "Kyiv", EventType: models.EventTypeRunning, Organiser: "New Run"}
	err := repo.Create(context.Background(), e, []uint{999}, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventRepositoryListOrdering(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)

	t1 := now.Add(24 * time.Hour)
	t2 := now.Add(48 * time.Hour)
	t3 := now.Add(72 * time.Hour)
	testutils.CreateEvent(t, db, "Third", "Kyiv", t3, now)
	testutils.CreateEvent(t, db, "First", "Kyiv", t1, now)
	testutils.CreateEvent(t, db, "Second", "Kyiv", t2, now)

	page, err := repo.List(context.Background(), EventFilter{}, PageRequest{}, now)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"First", "Second", "Third"}, eventNames(page.Items)); diff != "" {
		t.Errorf("listing order mismatch (-want +got):\n%s", diff)
	}
}

func TestEventRepositoryListFilters(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	d42 := testutils.CreateDistance(t, db, 42)
	d21 := testutils.CreateDistance(t, db, 21)
	start := now.Add(24 * time.Hour)
	testutils.CreateEvent(t, db, "Marathon", "Kyiv", start, now, d42)
	testutils.CreateEvent(t, db, "Half Marathon", "Lviv", start.Add(time.Hour), now, d21)
	cycling := testutils.CreateEvent(t, db, "Gran Fondo", "Odesa", start.Add(2*time.Hour), now)
	require.NoError(t, db.Model(&cycling).Update("event_type", models.EventTypeCycling).Error)
	testutils.CreateEvent(t, db, "Old 100%_ Marathon", "Kyiv", now.Add(-24*time.Hour), now)

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"name only, case-insensitive", EventFilter{Name: "marathon", Active: boolPtr(true)}, []string{"Marathon", "Half Marathon"}},
		{"name and location", EventFilter{Name: "Marathon", Location: "Kyiv", Active: boolPtr(true)}, []string{"Marathon"}},
		{"event type", EventFilter{EventType: models.EventTypeCycling}, []string{"Gran Fondo"}},
		{"archive", EventFilter{Active: boolPtr(false)}, []string{"Old 100%_ Marathon"}},
		{"wildcards are literal", EventFilter{Name: "100%_"}, []string{"Old 100%_ Marathon"}},
		{"percent alone matches nothing extra", EventFilter{Name: "%"}, []string{"Old 100%_ Marathon"}},
		{"no criteria", EventFilter{}, []string{"Old 100%_ Marathon", "Marathon", "Half Marathon", "Gran Fondo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter, PageRequest{Page: 1}, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eventNames(page.Items))
		})
	}
}

func TestEventRepositoryListFiltersNonASCII(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	testutils.CreateEvent(t, db, "Київський марафон", "Київ", now.Add(time.Hour), now)
	testutils.CreateEvent(t, db, "Marathon", "Kyiv", now.Add(2*time.Hour), now)

	tests := []struct {
		name   string
		filter EventFilter
	}{
		{"exact case name", EventFilter{Name: "Київський"}},
		{"lower case name", EventFilter{Name: "київський МАРАФОН"}},
		{"lower case location", EventFilter{Location: "київ"}},
		{"upper case location", EventFilter{Location: "КИЇВ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter, PageRequest{Page: 1}, now)
			require.NoError(t, err)
			assert.Equal(t, []string{"Київський марафон"}, eventNames(page.Items))
		})
	}
}

func TestEventRepositoryListIgnoresStaleFlag(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)

	// stored while still upcoming, listed after it started
	saved := now.Add(-2 * time.Hour)
	testutils.CreateEvent(t, db, "Stale", "Kyiv", now.Add(-time.Hour), saved)

	upcoming, err := repo.List(context.Background(), EventFilter{Active: boolPtr(true)}, PageRequest{}, now)
	require.NoError(t, err)
	assert.Empty(t, upcoming.Items)

	archive, err := repo.List(context.Background(), EventFilter{Active: boolPtr(false)}, PageRequest{}, now)
	require.NoError(t, err)
	require.Len(t, archive.Items, 1)
	assert.True(t, archive.Items[0].IsActive, "stored flag is left as saved")
}

func TestEventRepositoryListPagination(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		testutils.CreateEvent(t, db, "Race", "Kyiv", now.Add(time.Duration(i+1)*time.Hour), now)
	}

	first, err := repo.List(ctx, EventFilter{}, PageRequest{Page: 1}, now)
	require.NoError(t, err)
	assert.Len(t, first.Items, PageSize)
	assert.Equal(t, int64(9), first.Total)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasNext())

	second, err := repo.List(ctx, EventFilter{}, PageRequest{Page: 2}, now)
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.HasNext())

	beyond, err := repo.List(ctx, EventFilter{}, PageRequest{Page: 5}, now)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
	assert.Equal(t, 5, beyond.Page)
	assert.Equal(t, int64(9), beyond.Total)

	huge, err := repo.List(ctx, EventFilter{}, PageRequest{Page: math.MaxInt/PageSize + 2}, now)
	require.NoError(t, err)
	assert.Empty(t, huge.Items)
	assert.Equal(t, int64(9), huge.Total)

	zero, err := repo.List(ctx, EventFilter{}, PageRequest{Page: 0}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, zero.Page)
	assert.Len(t, zero.Items, PageSize)
}

func TestEventRepositoryListSummaries(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)

	d42 := testutils.CreateDistance(t, db, 42)
	d10 := testutils.CreateDistance(t, db, 10)
	e := testutils.CreateEvent(t, db, "Marathon", "Kyiv", now.Add(time.Hour), now, d42, d10)
	testutils.CreateRegistration(t, db, e, testutils.CreateRunner(t, db, "alice", false), d42, now)
	testutils.CreateRegistration(t, db, e, testutils.CreateRunner(t, db, "bob", false), d10, now)

	page, err := repo.List(context.Background(), EventFilter{}, PageRequest{}, now)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []int{10, 42}, page.Items[0].DistanceKms)
	assert.Equal(t, int64(2), page.Items[0].RegistrationCount)
}

func TestEventRepositoryDeleteCascades(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	d42 := testutils.CreateDistance(t, db, 42)
	e := testutils.CreateEvent(t, db, "Marathon", "Kyiv", now.Add(time.Hour), now, d42)
	runner := testutils.CreateRunner(t, db, "alice", false)
	testutils.CreateRegistration(t, db, e, runner, d42, now)

	require.NoError(t, repo.Delete(ctx, e.ID))

	var regs int64
	require.NoError(t, db.Model(&models.Registration{}).Count(&regs).Error)
	assert.Zero(t, regs)

	var runners int64
	require.NoError(t, db.Model(&models.Runner{}).Count(&runners).Error)
	assert.Equal(t, int64(1), runners)

	_, err := repo.FindByID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), ErrNotFound)
}

func TestEventRepositoryRefreshActivity(t *testing.T) {
	db := testutils.NewTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	saved := now.Add(-3 * time.Hour)
	stale := testutils.CreateEvent(t, db, "Stale", "Kyiv", now.Add(-time.Hour), saved)
	fresh := testutils.CreateEvent(t, db, "Fresh", "Kyiv", now.Add(time.Hour), saved)

	changed, err := repo.RefreshActivity(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	got, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	changed, err = repo.RefreshActivity(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, changed)
}
