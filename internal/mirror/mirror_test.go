package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileSubject = "me-uid"

func newTestMirror() *Mirror {
	m := NewForViewer(profileSubject)
	m.Hydrate(CollectionAll, []Entity{
		{ID: "p1", AuthorID: "alice", BoostCount: 3},
		{ID: "p2", AuthorID: profileSubject, BoostCount: 0},
		{ID: "p3", AuthorID: "bob", BoostCount: 1, UserHasBoosted: true, CanUnboost: true},
	})
	m.Hydrate(CollectionBoostedByMe, []Entity{
		{ID: "p3", AuthorID: "bob", BoostCount: 1, UserHasBoosted: true, CanUnboost: true},
	})
	return m
}

func ids(entities []Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func TestApplyMutationUpdatesEveryCopy(t *testing.T) {
	m := newTestMirror()

	ok := m.ApplyMutation("p3", Patch{BoostCount: Int64(2)})
	require.True(t, ok)

	for _, name := range []string{CollectionAll, CollectionBoostedByMe} {
		e, found := find(m.Get(name), "p3")
		require.True(t, found, name)
		assert.Equal(t, int64(2), e.BoostCount, name)
	}
}

func TestApplyMutationInsertsIntoPredicateCollections(t *testing.T) {
	m := newTestMirror()

	m.ApplyMutation("p1", Patch{BoostCount: Int64(4), UserHasBoosted: Bool(true), CanUnboost: Bool(true)})

	// Newly boosted posts land at the head of the boosted-by-me list.
	assert.Equal(t, []string{"p1", "p3"}, ids(m.Get(CollectionBoostedByMe)))
}

func TestApplyMutationRemovesFromPredicateCollections(t *testing.T) {
	m := newTestMirror()

	m.ApplyMutation("p3", Patch{BoostCount: Int64(0), UserHasBoosted: Bool(false), CanUnboost: Bool(false)})

	assert.Empty(t, m.Get(CollectionBoostedByMe))
	_, found := find(m.Get(CollectionAll), "p3")
	assert.True(t, found, "the feed keeps the post, only the predicate collection drops it")
}

func TestApplyMutationIsIdempotent(t *testing.T) {
	m := newTestMirror()

	patch := Patch{UserHasSaved: Bool(true)}
	m.ApplyMutation("p1", patch)
	first := m.Get(CollectionSavedByMe)
	m.ApplyMutation("p1", patch)
	second := m.Get(CollectionSavedByMe)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"p1"}, ids(second))
}

func TestReceivedBoostsTracksOwnPostsCrossingZero(t *testing.T) {
	m := newTestMirror()
	require.Empty(t, m.Get(CollectionReceivedBoosts))

	m.ApplyMutation("p2", Patch{BoostCount: Int64(1)})
	assert.Equal(t, []string{"p2"}, ids(m.Get(CollectionReceivedBoosts)))

	m.ApplyMutation("p2", Patch{BoostCount: Int64(0)})
	assert.Empty(t, m.Get(CollectionReceivedBoosts))
}

func TestReceivedBoostsIgnoresOtherAuthors(t *testing.T) {
	m := newTestMirror()

	// p1 belongs to alice; a count change must not surface it on my profile.
	m.ApplyMutation("p1", Patch{BoostCount: Int64(9)})
	assert.Empty(t, m.Get(CollectionReceivedBoosts))
}

func TestApplyMutationUnknownEntity(t *testing.T) {
	m := newTestMirror()
	assert.False(t, m.ApplyMutation("missing", Patch{BoostCount: Int64(1)}))
}

func TestHydrateRefreshesCopiesWithoutInserting(t *testing.T) {
	m := newTestMirror()

	m.Hydrate(CollectionAll, []Entity{
		{ID: "p3", AuthorID: "bob", BoostCount: 7, UserHasBoosted: true, CanUnboost: false},
	})

	e, found := find(m.Get(CollectionBoostedByMe), "p3")
	require.True(t, found)
	assert.Equal(t, int64(7), e.BoostCount)
	assert.False(t, e.CanUnboost)

	// Hydrating the feed never adds members to predicate collections.
	assert.Equal(t, []string{"p3"}, ids(m.Get(CollectionBoostedByMe)))
}

func TestSnapshotRestoresExactState(t *testing.T) {
	m := newTestMirror()
	before, _ := m.Lookup("p3")
	snapshot := SnapshotOf(before)

	m.ApplyMutation("p3", Patch{BoostCount: Int64(0), UserHasBoosted: Bool(false), CanUnboost: Bool(false)})
	m.ApplyMutation("p3", snapshot)

	after, _ := m.Lookup("p3")
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"p3"}, ids(m.Get(CollectionBoostedByMe)))
}

func TestClosedMirrorIgnoresMutations(t *testing.T) {
	m := newTestMirror()
	m.Close()

	assert.False(t, m.ApplyMutation("p1", Patch{BoostCount: Int64(99)}))
	e, _ := m.Lookup("p1")
	assert.Equal(t, int64(3), e.BoostCount)
	assert.True(t, m.Closed())
}

func TestEntityIDsDeduplicates(t *testing.T) {
	m := newTestMirror()
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, m.EntityIDs())
}

func find(entities []Entity, id string) (Entity, bool) {
	for _, e := range entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}
