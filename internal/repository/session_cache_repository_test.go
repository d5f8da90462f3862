package repository

import (
	"testing"
	"time"

	"istas_backend/internal/scoring"
	"istas_backend/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*SessionCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionCacheRepository(rdb, "istas:session", 30*time.Minute), mr
}

func TestSessionCacheRoundTrip(t *testing.T) {
	cache, mr := newCache(t)

	got, err := cache.Get(ctx, "acme", 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	obs := "turno noturno"
	snap := session.Snapshot{
		State:      session.StateInProgress,
		EmployeeID: 3,
		FormID:     1,
		Active:     1,
		Answers: scoring.Answers{
			1: {QuestionID: 1, Response: scoring.Yes, Observation: &obs},
			2: {QuestionID: 2, Response: scoring.No},
			3: {QuestionID: 3, Options: []string{"a"}},
		},
		Notes: "primeira visita",
	}
	require.NoError(t, cache.Put(ctx, "acme", 7, snap))
	assert.True(t, mr.Exists("istas:session:acme:7"))
	assert.Equal(t, 30*time.Minute, mr.TTL("istas:session:acme:7"))

	got, err = cache.Get(ctx, "acme", 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.State, got.State)
	assert.Equal(t, snap.Answers, got.Answers)
	assert.Equal(t, "primeira visita", got.Notes)

	other, err := cache.Get(ctx, "other", 7)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSessionCacheExpiryAndTTLChange(t *testing.T) {
	cache, mr := newCache(t)
	cache.SetTTL(time.Minute)
	require.NoError(t, cache.Put(ctx, "acme", 7, session.Snapshot{State: session.StateSelecting}))
	assert.Equal(t, time.Minute, mr.TTL("istas:session:acme:7"))

	mr.FastForward(2 * time.Minute)
	got, err := cache.Get(ctx, "acme", 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionCacheDelete(t *testing.T) {
	cache, _ := newCache(t)
	require.NoError(t, cache.Put(ctx, "acme", 7, session.Snapshot{State: session.StateSelecting}))
	require.NoError(t, cache.Delete(ctx, "acme", 7))
	got, err := cache.Get(ctx, "acme", 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionCacheCorruptPayload(t *testing.T) {
	cache, mr := newCache(t)
	require.NoError(t, mr.Set("istas:session:acme:7", "{not json"))
	_, err := cache.Get(ctx, "acme", 7)
	assert.Error(t, err)
}
