package memory

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
)

func seedSession(t *testing.T, store *SessionStore, id string, capacity int) {
	t.Helper()
	start := time.Date(2026, 11, 5, 15, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateBatch(context.Background(), []models.ClassSession{{
		SessionID: id, TrainerID: "trainer-1", Zip: "75454", Latitude: 33.2859, Longitude: -96.5730,
		StartTime: start, EndTime: start.Add(time.Hour), Capacity: capacity, Tags: []string{"yoga"},
	}}))
}

func TestSessionStoreCreateBatchAllOrNone(t *testing.T) {
	store := NewSessionStore()
	seedSession(t, store, "sess-1", 2)

	err := store.CreateBatch(context.Background(), []models.ClassSession{{SessionID: "sess-2"}, {SessionID: "sess-1"}})
	require.Error(t, err)
	_, err = store.FindByID(context.Background(), "sess-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSessionStoreReturnsCopies(t *testing.T) {
	store := NewSessionStore()
	seedSession(t, store, "sess-1", 2)

	got, err := store.FindByID(context.Background(), "sess-1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.CountRegistered = 99

	again, err := store.FindByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "yoga", again.Tags[0])
	assert.Zero(t, again.CountRegistered)
}

func TestSessionStoreUpdateCountCompareAndSwap(t *testing.T) {
	store := NewSessionStore()
	seedSession(t, store, "sess-1", 2)
	ctx := context.Background()

	ok, err := store.UpdateCount(ctx, models.CountUpdate{SessionID: "sess-1", Expected: 1, Next: 2})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.UpdateCount(ctx, models.CountUpdate{SessionID: "sess-1", Expected: 0, Next: 1, RequireActive: true})
	require.NoError(t, err)
	assert.True(t, ok)

	cancelled, err := store.MarkCancelled(ctx, "sess-1", time.Now())
	require.NoError(t, err)
	assert.True(t, cancelled)

	ok, err = store.UpdateCount(ctx, models.CountUpdate{SessionID: "sess-1", Expected: 1, Next: 2, RequireActive: true})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.UpdateCount(ctx, models.CountUpdate{SessionID: "sess-1", Expected: 1, Next: 0})
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := store.MarkCancelled(ctx, "sess-1", time.Now())
	require.NoError(t, err)
	assert.False(t, again)
}

func TestSessionStoreConcurrentIncrementsNeverLoseUpdates(t *testing.T) {
	store := NewSessionStore()
	seedSession(t, store, "sess-1", 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	var applied atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 10; n++ {
				for {
					current, err := store.FindByID(ctx, "sess-1")
					if err != nil {
						t.Error(err)
						return
					}
					ok, _ := store.UpdateCount(ctx, models.CountUpdate{SessionID: "sess-1", Expected: current.CountRegistered, Next: current.CountRegistered + 1})
					if ok {
						applied.Add(1)
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	final, err := store.FindByID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int(applied.Load()), final.CountRegistered)
	assert.Equal(t, 500, final.CountRegistered)
}

func TestSessionStoreListings(t *testing.T) {
	store := NewSessionStore()
	seedSession(t, store, "sess-1", 2)
	seedSession(t, store, "sess-2", 2)
	ctx := context.Background()
	_, err := store.MarkCancelled(ctx, "sess-2", time.Now())
	require.NoError(t, err)

	byZip, err := store.ListActiveByZip(ctx, "75454")
	require.NoError(t, err)
	require.Len(t, byZip, 1)

	box := geo.Bounds(geo.Point{Latitude: 33.2859, Longitude: -96.5730}, 5)
	inBox, err := store.ListActiveWithinBounds(ctx, box)
	require.NoError(t, err)
	assert.Len(t, inBox, 1)

	byTrainer, err := store.ListByTrainer(ctx, "trainer-1")
	require.NoError(t, err)
	assert.Len(t, byTrainer, 2)
}

func TestEnrollmentStoreLifecycle(t *testing.T) {
	sessions := NewSessionStore()
	seedSession(t, sessions, "sess-1", 2)
	store := NewEnrollmentStore(sessions)
	ctx := context.Background()
	first := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	inserted, err := store.Insert(ctx, &models.Enrollment{StudentID: "stu-1", SessionID: "sess-1", EnrolledAt: first})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = store.Insert(ctx, &models.Enrollment{StudentID: "stu-1", SessionID: "sess-1", EnrolledAt: first})
	require.NoError(t, err)
	assert.False(t, inserted)

	classes, err := store.ListActiveByStudent(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "sess-1", classes[0].Class.SessionID)

	ok, err := store.MarkCancelled(ctx, "stu-1", "sess-1", first.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	roster, err := store.ListActiveBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, roster)

	ok, err = store.Restore(ctx, "stu-1", "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)
	row, err := store.Find(ctx, "stu-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, first, row.EnrolledAt)
	assert.Nil(t, row.CancelledAt)

	_, err = store.MarkCancelled(ctx, "stu-1", "sess-1", first.Add(2*time.Hour))
	require.NoError(t, err)
	later := first.Add(24 * time.Hour)
	ok, err = store.Reactivate(ctx, "stu-1", "sess-1", later)
	require.NoError(t, err)
	assert.True(t, ok)
	row, err = store.Find(ctx, "stu-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, later, row.EnrolledAt)

	_, err = store.Find(ctx, "stu-2", "sess-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMessageStoreOrdering(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, store.Create(ctx, &models.Message{SessionID: "sess-1", SenderID: "trainer-1", MessageText: text}))
	}
	messages, err := store.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].MessageText)
	assert.Equal(t, "three", messages[2].MessageText)

	empty, err := store.ListBySession(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessageStoreConcurrentCreatesStayChronological(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Create(ctx, &models.Message{SessionID: "sess-1", SenderID: "trainer-1", MessageText: "hi"}))
		}()
	}
	wg.Wait()

	messages, err := store.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 50)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt), "message %d predates its predecessor", i)
	}
}

func TestProfileStoreLifecycle(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	_, err := store.Find(ctx, "user-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, store.SetStatus(ctx, "user-1", models.ProfileStatusInactive), sql.ErrNoRows)

	profile := &models.Profile{UserID: "user-1", Role: models.ProfileRoleTrainer, Status: models.ProfileStatusActive,
		Images: models.ProfileImages{{ImageID: "a", Key: "profile-images/user-1/a.jpg"}, {ImageID: "b", Key: "profile-images/user-1/b.jpg"}}}
	require.NoError(t, store.Upsert(ctx, profile))
	created := profile.CreatedAt
	assert.NotNil(t, profile.Certifications)
	assert.False(t, created.IsZero())

	second := &models.Profile{UserID: "user-1", Role: models.ProfileRoleTrainer, Status: models.ProfileStatusActive,
		Images: models.ProfileImages{{ImageID: "a", Key: "profile-images/user-1/a.jpg"}, {ImageID: "b", Key: "profile-images/user-1/b.jpg"}}}
	require.NoError(t, store.Upsert(ctx, second))
	assert.Equal(t, created, second.CreatedAt)

	removed, err := store.RemoveImage(ctx, "user-1", "a")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "profile-images/user-1/a.jpg", removed.Key)

	missing, err := store.RemoveImage(ctx, "user-1", "a")
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, err := store.Find(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, found.Images, 1)
	assert.Equal(t, "b", found.Images[0].ImageID)

	// Callers get copies.
	found.Images[0].Key = "mutated"
	again, err := store.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "profile-images/user-1/b.jpg", again.Images[0].Key)

	require.NoError(t, store.SetStatus(ctx, "user-1", models.ProfileStatusInactive))
	_, err = store.RemoveImage(ctx, "user-1", "b")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
