package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlowPair(t *testing.T) (*Flow, *Flow, SessionStore) {
	t.Helper()

	cfg := &Config{pollInterval: 10 * time.Millisecond}
	store := newMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	return newFlow(cfg, store, newCatalog()), newFlow(cfg, store, newCatalog()), store
}

func submitPicks(t *testing.T, f *Flow, ctx context.Context, role Role, ids ...string) *Session {
	t.Helper()

	require.NoError(t, f.ChooseRole(role))
	require.NoError(t, f.BeginSelecting(ctx))
	for _, id := range ids {
		require.NoError(t, f.Toggle(id))
	}
	sess, err := f.Submit(ctx)
	require.NoError(t, err)
	return sess
}

func TestFlow_DisjointPicksRandomizeOverUnion(t *testing.T) {
	ctx := context.Background()
	p1, p2, _ := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p2.Join(ctx, code))

	submitPicks(t, p1, ctx, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")
	assert.Equal(t, stateWaiting, p1.State())

	sess := submitPicks(t, p2, ctx, RolePerson2, "wolt-hesburger", "wolt-ganbei", "wolt-holydonut")
	assert.Equal(t, stateResolved, p2.State())
	require.NotNil(t, sess.Result)
	assert.Empty(t, sess.Result.Matches)
	assert.Empty(t, sess.Result.Winner)

	sess, err = p2.ResolveRandom(ctx)
	require.NoError(t, err)
	assert.Equal(t, MethodRandom, sess.Result.Method)
	assert.Contains(t, []string{
		"bolt-kfc", "bolt-dominos", "bolt-manami",
		"wolt-hesburger", "wolt-ganbei", "wolt-holydonut",
	}, sess.Result.Winner)
}

func TestFlow_SingleMatchAutoResolves(t *testing.T) {
	ctx := context.Background()
	p1, p2, _ := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p2.Join(ctx, code))

	submitPicks(t, p1, ctx, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")
	sess := submitPicks(t, p2, ctx, RolePerson2, "bolt-kfc", "wolt-ganbei", "wolt-holydonut")

	require.NotNil(t, sess.Result)
	assert.Equal(t, "bolt-kfc", sess.Result.Winner)
	assert.Equal(t, MethodMatch, sess.Result.Method)
}

func TestFlow_MultipleMatchesNeedAStrategy(t *testing.T) {
	ctx := context.Background()
	p1, p2, store := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p2.Join(ctx, code))

	submitPicks(t, p1, ctx, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")
	sess := submitPicks(t, p2, ctx, RolePerson2, "bolt-kfc", "bolt-dominos", "wolt-ganbei")

	require.NotNil(t, sess.Result)
	assert.Equal(t, []string{"bolt-dominos", "bolt-kfc"}, sess.Result.Matches)
	assert.Empty(t, sess.Result.Winner)

	// Auto-resolution must refuse an ambiguous match set.
	_, err = resolveSession(ctx, store, code, func(res *Result, _ []string) error {
		return resolveByMatch(res)
	})
	assert.ErrorIs(t, err, ErrAmbiguousMatch)

	// The wheel resolves over the match set only.
	sess, err = p2.ResolveWheel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bolt-kfc", sess.Result.Winner)
	assert.Equal(t, MethodWheel, sess.Result.Method)
}

func TestFlow_ShortSubmitFailsWithoutStateChange(t *testing.T) {
	ctx := context.Background()
	p1, _, store := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p1.ChooseRole(RolePerson1))
	require.NoError(t, p1.BeginSelecting(ctx))
	require.NoError(t, p1.Toggle("bolt-kfc"))
	require.NoError(t, p1.Toggle("bolt-dominos"))

	_, err = p1.Submit(ctx)
	assert.ErrorIs(t, err, ErrIncompleteSelection)
	assert.Equal(t, stateSelecting, p1.State())

	sess, err := store.Read(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, sess.Person1, "failed submit must not touch the record")
}

func TestFlow_WaitingBlocksUntilPeerSubmits(t *testing.T) {
	ctx := context.Background()
	p1, p2, _ := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p2.Join(ctx, code))

	submitPicks(t, p1, ctx, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")

	// Resolution with one selection outstanding is premature.
	_, err = p1.ResolveRandom(ctx)
	assert.ErrorIs(t, err, ErrValidation)

	done := make(chan *Session, 1)
	go func() {
		sess, err := p1.AwaitPeer(ctx)
		assert.NoError(t, err)
		done <- sess
	}()

	time.Sleep(25 * time.Millisecond)
	submitPicks(t, p2, ctx, RolePerson2, "bolt-kfc", "wolt-ganbei", "wolt-holydonut")

	select {
	case sess := <-done:
		require.NotNil(t, sess.Result)
		assert.Equal(t, "bolt-kfc", sess.Result.Winner)
		assert.Equal(t, stateResolved, p1.State())
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitPeer never returned")
	}
}

func TestFlow_AwaitPeerHonorsCancellation(t *testing.T) {
	p1, _, _ := testFlowPair(t)

	_, err := p1.Start(context.Background(), "")
	require.NoError(t, err)
	submitPicks(t, p1, context.Background(), RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p1.AwaitPeer(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFlow_EditChoicesRecomputes(t *testing.T) {
	ctx := context.Background()
	p1, p2, _ := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p2.Join(ctx, code))

	submitPicks(t, p1, ctx, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")
	sess := submitPicks(t, p2, ctx, RolePerson2, "bolt-kfc", "wolt-ganbei", "wolt-holydonut")
	require.Equal(t, "bolt-kfc", sess.Result.Winner)

	// Person2 reopens their picks; the edit drops the overlap entirely.
	require.NoError(t, p2.EditChoices(ctx))
	assert.Equal(t, stateSelecting, p2.State())
	assert.Equal(t, []string{"bolt-kfc", "wolt-ganbei", "wolt-holydonut"}, p2.Picks())

	require.NoError(t, p2.Toggle("bolt-kfc"))
	require.NoError(t, p2.Toggle("wolt-hesburger"))
	sess, err = p2.Submit(ctx)
	require.NoError(t, err)

	require.NotNil(t, sess.Result)
	assert.Empty(t, sess.Result.Matches)
	assert.Empty(t, sess.Result.Winner, "stale winner must not survive an edit")
}

func TestFlow_ToggleLimitsAndNotes(t *testing.T) {
	ctx := context.Background()
	p1, _, _ := testFlowPair(t)

	_, err := p1.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, p1.ChooseRole(RolePerson1))
	require.NoError(t, p1.BeginSelecting(ctx))

	for _, id := range []string{"bolt-kfc", "bolt-dominos", "bolt-manami"} {
		require.NoError(t, p1.Toggle(id))
	}

	// A fourth pick is silently refused.
	require.NoError(t, p1.Toggle("wolt-ganbei"))
	assert.Equal(t, []string{"bolt-kfc", "bolt-dominos", "bolt-manami"}, p1.Picks())

	assert.ErrorIs(t, p1.Toggle("no-such-place"), ErrValidation)

	require.NoError(t, p1.EnterOrderNotes())
	require.NoError(t, p1.SetOrderNote("bolt-kfc", "hot wings"))
	require.NoError(t, p1.SetOrderNote("wolt-ganbei", "ignored, not picked"))

	sess, err := p1.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bolt-kfc": "hot wings"}, sess.Person1.Orders)
}

func TestFlow_CustomRestaurantsTravelThroughTheEnvelope(t *testing.T) {
	ctx := context.Background()
	p1, p2, _ := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)

	require.NoError(t, p1.ChooseRole(RolePerson1))
	require.NoError(t, p1.BeginSelecting(ctx))
	require.NoError(t, p1.AddCustomRestaurant(Restaurant{
		ID: "custom-1", Name: "Pas Joną", Platform: platformCustom, Cuisine: "Pica",
	}))
	require.NoError(t, p1.Toggle("custom-1"))
	require.NoError(t, p1.Toggle("bolt-kfc"))
	require.NoError(t, p1.Toggle("bolt-dominos"))
	_, err = p1.Submit(ctx)
	require.NoError(t, err)

	// The peer joins later and can resolve the custom id.
	require.NoError(t, p2.Join(ctx, code))
	_, ok := p2.catalog.ByID("custom-1")
	assert.True(t, ok)
}

func TestFlow_BeginSelectingDropsStaleIDs(t *testing.T) {
	ctx := context.Background()
	p1, _, store := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)

	// A record whose selection references an id the catalog no longer
	// carries, as after a listing rotation.
	sess, err := store.Read(ctx, code)
	require.NoError(t, err)
	sel, err := newSelection(RolePerson1, []string{"bolt-kfc", "bolt-dominos", "bolt-gone"}, map[string]string{"bolt-gone": "note"})
	require.NoError(t, err)
	sess.setSelection(RolePerson1, sel)
	require.NoError(t, store.Write(ctx, code, sess))

	require.NoError(t, p1.ChooseRole(RolePerson1))
	require.NoError(t, p1.BeginSelecting(ctx))
	assert.Equal(t, []string{"bolt-kfc", "bolt-dominos"}, p1.Picks())
}

func TestFlow_IllegalTransitions(t *testing.T) {
	ctx := context.Background()
	p1, _, _ := testFlowPair(t)

	assert.ErrorIs(t, p1.ChooseRole(RolePerson1), ErrValidation, "no session joined")

	_, err := p1.Start(ctx, "")
	require.NoError(t, err)

	assert.ErrorIs(t, p1.Toggle("bolt-kfc"), ErrValidation, "not selecting yet")
	assert.ErrorIs(t, p1.BeginSelecting(ctx), ErrValidation, "no role chosen")
	_, err = p1.AwaitPeer(ctx)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, p1.ChooseRole(RolePerson1))
	assert.ErrorIs(t, p1.ChooseRole(RolePerson2), ErrValidation, "role already chosen")
	_, err = p1.Start(ctx, "")
	assert.ErrorIs(t, err, ErrValidation, "session already underway")
}

func TestFlow_Reset(t *testing.T) {
	ctx := context.Background()
	p1, _, store := testFlowPair(t)

	code, err := p1.Start(ctx, "")
	require.NoError(t, err)
	submitPicks(t, p1, ctx, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")

	require.NoError(t, p1.Reset(ctx))
	assert.Equal(t, stateAwaitingSession, p1.State())
	assert.Empty(t, p1.Code())

	_, err = store.Read(ctx, code)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFlow_JoinDate(t *testing.T) {
	ctx := context.Background()
	p1, p2, _ := testFlowPair(t)

	require.NoError(t, p1.JoinDate(ctx, "2026-09-01"))
	require.NotEmpty(t, p1.Code())

	// The second participant lands on the same record.
	require.NoError(t, p2.JoinDate(ctx, "2026-09-01"))
	assert.Equal(t, p1.Code(), p2.Code())
}

func TestSubmitSelection_PreservesPeerSubmit(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(0)
	defer store.Close()

	sess, err := createSession(ctx, store, "")
	require.NoError(t, err)
	code := sess.Code

	// Both participants merge into the envelope independently; the second
	// write must still see the first because the record is re-read.
	_, err = submitSelection(ctx, store, code,
		mustSelection(t, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami"), nil)
	require.NoError(t, err)

	got, err := submitSelection(ctx, store, code,
		mustSelection(t, RolePerson2, "bolt-kfc", "wolt-ganbei", "wolt-holydonut"), nil)
	require.NoError(t, err)

	require.NotNil(t, got.Person1)
	require.NotNil(t, got.Person2)
	require.NotNil(t, got.Result)
	assert.Equal(t, "bolt-kfc", got.Result.Winner)
}

func TestResolveSession_RequiresResult(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(0)
	defer store.Close()

	sess, err := createSession(ctx, store, "")
	require.NoError(t, err)

	_, err = resolveSession(ctx, store, sess.Code, func(res *Result, pool []string) error {
		return resolveRandom(res, pool)
	})
	assert.ErrorIs(t, err, ErrIncompleteSession)
}

func TestFlowState_String(t *testing.T) {
	assert.Equal(t, "awaiting-session", stateAwaitingSession.String())
	assert.Equal(t, "resolved", stateResolved.String())
	assert.Equal(t, "unknown", flowState(99).String())
}
