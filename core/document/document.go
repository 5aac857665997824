package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock produces the current time. Backends receive a Clock at construction
// and consult it when persisting a document that carries no timestamp.
type Clock func() time.Time

// Now returns the clock's current time, falling back to wall-clock time when
// the clock is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Document is a single synchronizable record.
type Document struct {
	// ID is the cross-store identity. It is generated once and never
	// regenerated; both stores persist it verbatim.
	ID uuid.UUID

	// Index and Type form the namespace the document belongs to
	// (collection/index name and sub-type name). They are carried through on
	// re-insertion but play no part in matching or conflict resolution.
	Index string
	Type  string

	// Timestamp is the document's last-write time with millisecond precision.
	// The zero value means "unset"; a store substitutes its clock's now at
	// persistence time, not at construction time.
	Timestamp time.Time

	// Content is the opaque payload. Stores that only accept text persist it
	// as JSON.
	Content map[string]any
}

// New builds a document with a freshly generated identity and no timestamp.
func New(index, typ string, content map[string]any) Document {
	return Document{
		ID:      uuid.New(),
		Index:   index,
		Type:    typ,
		Content: content,
	}
}

// HasTimestamp reports whether the document carries an explicit timestamp.
func (d Document) HasTimestamp() bool {
	return !d.Timestamp.IsZero()
}

// PersistTimestamp returns the timestamp a store must persist for this
// document: the document's own timestamp when present, otherwise the clock's
// current time. Either way the result is truncated to millisecond precision
// so that both backends agree on equality after a round trip.
func (d Document) PersistTimestamp(clock Clock) time.Time {
	ts := d.Timestamp
	if ts.IsZero() {
		ts = clock.Now()
	}
	return ts.Truncate(time.Millisecond)
}

// MarshalContent serializes the content payload to JSON for text-only stores.
func (d Document) MarshalContent() (string, error) {
	b, err := json.Marshal(d.Content)
	if err != nil {
		return "", fmt.Errorf("failed to serialize content of %s: %w", d.ID, err)
	}
	return string(b), nil
}

// UnmarshalContent parses a JSON content payload read back from a store.
func UnmarshalContent(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var content map[string]any
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	return content, nil
}

func (d Document) String() string {
	return fmt.Sprintf("<id: %s, index: %s, type: %s, timestamp: %s>",
		d.ID, d.Index, d.Type, d.Timestamp.Format(time.RFC3339Nano))
}
