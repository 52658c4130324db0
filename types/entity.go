package types

import "time"

// Entity carries creation and modification timestamps.
// Embed it in persisted records.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// IsZero reports whether the entity has never been persisted.
func (e Entity) IsZero() bool {
	return e.CreatedAt.IsZero()
}

// TouchAt sets UpdatedAt to t, and CreatedAt too when the entity is new.
// Records touched in one commit share a single timestamp.
func (e *Entity) TouchAt(t time.Time) {
	t = t.UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = t
	}
	e.UpdatedAt = t
}
