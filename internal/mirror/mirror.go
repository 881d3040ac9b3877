// Package mirror keeps several named views over the same posts (feed, boosted
// by me, received boosts, saved by me) in agreement. A single logical mutation
// is applied to every collection holding a copy of the post, and collections
// whose membership is defined by a predicate gain or lose the post as its
// fields change.
package mirror

import "sync"

// Entity is the in-memory post projection shared by all collections
type Entity struct {
	ID             string
	AuthorID       string
	BoostCount     int64
	UserHasBoosted bool
	CanUnboost     bool
	UserHasSaved   bool
}

// Patch is a partial update of an entity's mutable fields; nil fields are
// left untouched
type Patch struct {
	BoostCount     *int64
	UserHasBoosted *bool
	CanUnboost     *bool
	UserHasSaved   *bool
}

// Int64 returns a pointer for use in a Patch
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer for use in a Patch
func Bool(v bool) *bool { return &v }

func (p Patch) applyTo(e Entity) Entity {
	if p.BoostCount != nil {
		e.BoostCount = *p.BoostCount
	}
	if p.UserHasBoosted != nil {
		e.UserHasBoosted = *p.UserHasBoosted
	}
	if p.CanUnboost != nil {
		e.CanUnboost = *p.CanUnboost
	}
	if p.UserHasSaved != nil {
		e.UserHasSaved = *p.UserHasSaved
	}
	return e
}

// SnapshotOf captures every mutable field of an entity as a patch, so a
// failed optimistic toggle can be reversed exactly.
func SnapshotOf(e Entity) Patch {
	return Patch{
		BoostCount:     Int64(e.BoostCount),
		UserHasBoosted: Bool(e.UserHasBoosted),
		CanUnboost:     Bool(e.CanUnboost),
		UserHasSaved:   Bool(e.UserHasSaved),
	}
}

// MembershipRule decides whether an entity belongs in a collection. A nil
// rule means membership is managed purely by hydration.
type MembershipRule func(Entity) bool

// Standard collection names
const (
	CollectionAll            = "all"
	CollectionBoostedByMe    = "boosted_by_me"
	CollectionReceivedBoosts = "received_boosts"
	CollectionSavedByMe      = "saved_by_me"
)

type collection struct {
	rule     MembershipRule
	prepend  bool
	entities []Entity
}

func (c *collection) indexOf(id string) int {
	for i := range c.entities {
		if c.entities[i].ID == id {
			return i
		}
	}
	return -1
}

// Mirror owns the collections and applies mutations consistently across them.
// All methods are safe for concurrent use; once closed, mutations become
// no-ops so late async results cannot touch a torn-down view.
type Mirror struct {
	mu          sync.Mutex
	order       []string
	collections map[string]*collection
	closed      bool
}

// New creates an empty mirror with no collections
func New() *Mirror {
	return &Mirror{collections: make(map[string]*collection)}
}

// NewForViewer creates a mirror with the four standard collections. The
// received-boosts collection tracks posts authored by profileSubjectID that
// hold at least one boost.
func NewForViewer(profileSubjectID string) *Mirror {
	m := New()
	m.AddCollection(CollectionAll, nil, false)
	m.AddCollection(CollectionBoostedByMe, func(e Entity) bool { return e.UserHasBoosted }, true)
	m.AddCollection(CollectionReceivedBoosts, func(e Entity) bool {
		return e.BoostCount > 0 && e.AuthorID == profileSubjectID
	}, true)
	m.AddCollection(CollectionSavedByMe, func(e Entity) bool { return e.UserHasSaved }, true)
	return m
}

// AddCollection registers a named collection. Prepend collections insert new
// members at the head, preserving recency-of-action ordering.
func (m *Mirror) AddCollection(name string, rule MembershipRule, prepend bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return
	}
	m.collections[name] = &collection{rule: rule, prepend: prepend}
	m.order = append(m.order, name)
}

// Hydrate replaces a collection's contents with a server-rendered snapshot.
// Copies of the same posts already held in other collections are refreshed to
// the hydrated field values, keeping every copy identical.
func (m *Mirror) Hydrate(name string, entities []Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	c, ok := m.collections[name]
	if !ok {
		return
	}
	c.entities = append([]Entity(nil), entities...)
	for _, e := range entities {
		m.syncCopiesLocked(name, e)
	}
}

// syncCopiesLocked updates existing copies of e in every collection except
// skip. It never inserts: membership changes come from mutations, hydration
// only refreshes what is already displayed.
func (m *Mirror) syncCopiesLocked(skip string, e Entity) {
	for _, name := range m.order {
		if name == skip {
			continue
		}
		c := m.collections[name]
		if i := c.indexOf(e.ID); i >= 0 {
			c.entities[i] = e
		}
	}
}

// ApplyMutation patches every copy of the entity and re-evaluates membership
// for predicate collections: the entity is inserted where its new fields
// satisfy the rule and removed where they no longer do. Applying the same
// patch twice leaves the collections unchanged the second time. Returns false
// when no collection holds the entity.
func (m *Mirror) ApplyMutation(id string, patch Patch) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}

	var merged Entity
	found := false
	for _, name := range m.order {
		c := m.collections[name]
		if i := c.indexOf(id); i >= 0 {
			merged = patch.applyTo(c.entities[i])
			found = true
			break
		}
	}
	if !found {
		return false
	}

	for _, name := range m.order {
		c := m.collections[name]
		i := c.indexOf(id)
		if i >= 0 {
			c.entities[i] = merged
		}
		if c.rule == nil {
			continue
		}
		switch {
		case c.rule(merged) && i < 0:
			if c.prepend {
				c.entities = append([]Entity{merged}, c.entities...)
			} else {
				c.entities = append(c.entities, merged)
			}
		case !c.rule(merged) && i >= 0:
			c.entities = append(c.entities[:i], c.entities[i+1:]...)
		}
	}
	return true
}

// Get returns a copy of the named collection's entities in order
func (m *Mirror) Get(name string) []Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		return nil
	}
	return append([]Entity(nil), c.entities...)
}

// Lookup returns the entity's current state from whichever collection holds it
func (m *Mirror) Lookup(id string) (Entity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.order {
		c := m.collections[name]
		if i := c.indexOf(id); i >= 0 {
			return c.entities[i], true
		}
	}
	return Entity{}, false
}

// EntityIDs returns the id of every entity currently held in any collection.
// Used by the degraded-mode recount pass.
func (m *Mirror) EntityIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var ids []string
	for _, name := range m.order {
		for _, e := range m.collections[name].entities {
			if _, ok := seen[e.ID]; !ok {
				seen[e.ID] = struct{}{}
				ids = append(ids, e.ID)
			}
		}
	}
	return ids
}

// Close marks the mirror as torn down. Further mutations are ignored, which
// is how results of still-pending remote calls are kept away from an
// unmounted view.
func (m *Mirror) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Closed reports whether Close has been called
func (m *Mirror) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
