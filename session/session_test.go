package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredientagent"
)

var testProfile = ingredientagent.UserProfile{
	Allergies: []string{"milk", "fragrance"},
	SkinType:  ingredientagent.SkinSensitive,
	Expertise: ingredientagent.Expert,
}

// testStore exercises the Store contract against any implementation.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()
	id := NewID()

	_, ok, err := store.Profile(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "unknown session has no profile")

	require.NoError(t, store.SaveProfile(ctx, id, testProfile))
	got, ok, err := store.Profile(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testProfile, got)

	history, err := store.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 12 {
		require.NoError(t, store.AppendHistory(ctx, id, HistoryEntry{
			ProductName: fmt.Sprintf("product-%d", i),
			Success:     true,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err = store.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit, "history is capped")
	assert.Equal(t, "product-11", history[0].ProductName, "newest first")
	assert.Equal(t, "product-2", history[len(history)-1].ProductName)
	assert.True(t, history[0].Timestamp.Equal(base.Add(11*time.Minute)))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(Options{}))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(Options{TTL: time.Hour})
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveProfile(ctx, "s", testProfile))
	require.NoError(t, store.AppendHistory(ctx, "s", HistoryEntry{ProductName: "p"}))

	now = now.Add(59 * time.Minute)
	_, ok, err := store.Profile(ctx, "s")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = store.Profile(ctx, "s")
	require.NoError(t, err)
	assert.False(t, ok, "session expires after the TTL")
	history, err := store.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore_ProfileIsCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Options{})
	profile := ingredientagent.UserProfile{Allergies: []string{"milk"}, SkinType: ingredientagent.SkinDry, Expertise: ingredientagent.Beginner}

	require.NoError(t, store.SaveProfile(ctx, "s", profile))
	profile.Allergies[0] = "egg"

	got, _, err := store.Profile(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, got.Allergies)
}

// TestRedisStore runs against a live server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	store := NewRedisStore(rdb, Options{TTL: time.Minute})
	testStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.AppendHistory(ctx, "ttl", HistoryEntry{ProductName: "p"}))
	ttl, err := rdb.TTL(ctx, historyKey("ttl")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "session:abc:profile", profileKey("abc"))
	assert.Equal(t, "session:abc:history", historyKey("abc"))
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Options{})
	require.NoError(t, store.SaveProfile(ctx, "known", testProfile))

	t.Run("new session gets an id", func(t *testing.T) {
		req, err := Prepare(ctx, store, ingredientagent.AnalysisRequest{Ingredients: []string{"Water"}})
		require.NoError(t, err)
		assert.Len(t, req.SessionID, 36)
		assert.Empty(t, req.SkinType)
	})

	t.Run("saved profile fills gaps", func(t *testing.T) {
		req, err := Prepare(ctx, store, ingredientagent.AnalysisRequest{SessionID: "known", Expertise: "beginner"})
		require.NoError(t, err)
		assert.Equal(t, "sensitive", req.SkinType)
		assert.Equal(t, "beginner", req.Expertise, "explicit values win")
		assert.Equal(t, []string{"milk", "fragrance"}, req.Allergies)
	})

	t.Run("unknown session is left alone", func(t *testing.T) {
		req, err := Prepare(ctx, store, ingredientagent.AnalysisRequest{SessionID: "other"})
		require.NoError(t, err)
		assert.Equal(t, "other", req.SessionID)
		assert.Empty(t, req.Allergies)
	})

	t.Run("store failure", func(t *testing.T) {
		_, err := Prepare(ctx, failingStore{}, ingredientagent.AnalysisRequest{SessionID: "x"})
		assert.ErrorContains(t, err, "load profile")
	})
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Options{})
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	state := ingredientagent.WorkflowState{SessionID: "s1", Profile: testProfile}
	res := ingredientagent.Result{ProductName: "Cream", OverallRisk: "low", AverageSafetyScore: 8, Success: true, Verdict: ingredientagent.VerdictApproved}
	require.NoError(t, Record(ctx, store, state, res, at))

	profile, ok, err := store.Profile(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testProfile, profile)

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, HistoryEntry{
		ProductName:        "Cream",
		OverallRisk:        "low",
		AverageSafetyScore: 8,
		Verdict:            ingredientagent.VerdictApproved,
		Success:            true,
		Timestamp:          at,
	}, history[0])

	err = Record(ctx, failingStore{}, state, res, at)
	assert.ErrorContains(t, err, "save profile")
	assert.ErrorContains(t, err, "append history")
}

type failingStore struct{}

var errStore = errors.New("store down")

func (failingStore) SaveProfile(context.Context, string, ingredientagent.UserProfile) error {
	return errStore
}

func (failingStore) Profile(context.Context, string) (ingredientagent.UserProfile, bool, error) {
	return ingredientagent.UserProfile{}, false, errStore
}

func (failingStore) AppendHistory(context.Context, string, HistoryEntry) error { return errStore }

func (failingStore) History(context.Context, string) ([]HistoryEntry, error) { return nil, errStore }
