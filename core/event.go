package core

// Event is an ordered, typed attribute-bag record emitted by the
// settlement engine. Attributes are a sequence of single-key pairs —
// not a map — because the real node's emission order for a given
// event type is part of the wire contract and must be preserved in
// the log even though equality itself is order-insensitive.

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Attribute is a single key/value pair carried by an Event, in the
// order the engine appended it.
type Attribute struct {
	Key   string
	Value string
}

// Event is one log entry.
type Event struct {
	Type       string
	Attributes []Attribute
	Height     int64
}

// NewEvent constructs an event from an ordered key/value pair list.
func NewEvent(typ string, attrs ...Attribute) Event {
	return Event{Type: typ, Attributes: attrs}
}

// Attr is a convenience constructor for Attribute.
func Attr(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Get returns the value of the first attribute with the given key.
func (e Event) Get(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// normalizedHash computes the hash used for equality and ordering: the
// attributes are upper-cased and sorted by key, excluding the `id`
// attribute for `outbound` events (outbound ids are assigned by the
// broadcasting chain and are not part of the logical event identity).
func (e Event) normalizedHash() string {
	type kv struct{ k, v string }
	pairs := make([]kv, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		if e.Type == "outbound" && a.Key == "id" {
			continue
		}
		pairs = append(pairs, kv{strings.ToUpper(a.Key), strings.ToUpper(a.Value)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	var sb strings.Builder
	sb.WriteString(e.Type)
	for _, p := range pairs {
		sb.WriteByte('|')
		sb.WriteString(p.k)
		sb.WriteByte('=')
		sb.WriteString(p.v)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Equal reports structural equality: same type and the same normalized
// (upper-cased, sorted, id-for-outbound-excluded) attribute multiset.
func (e Event) Equal(o Event) bool {
	return e.Type == o.Type && e.normalizedHash() == o.normalizedHash()
}

// Less orders events by (type, normalizedHash), used to canonicalize a
// window of events before differential comparison.
func (e Event) Less(o Event) bool {
	if e.Type != o.Type {
		return e.Type < o.Type
	}
	return e.normalizedHash() < o.normalizedHash()
}

// EventLog is an append-only ordered sequence of events.
type EventLog struct {
	events []Event
}

// Append records an event, preserving append order.
func (l *EventLog) Append(e Event) { l.events = append(l.events, e) }

// All returns the full event log in append order.
func (l *EventLog) All() []Event { return l.events }

// Since returns the events from index `from` onward, i.e. those
// appended after the first `from` events.
func (l *EventLog) Since(from int) []Event {
	if from >= len(l.events) {
		return nil
	}
	return l.events[from:]
}

// Len reports the number of recorded events.
func (l *EventLog) Len() int { return len(l.events) }

// EqualAsMultiset reports whether two event windows are equal as
// multisets under Event.Equal — the comparison the replay harness uses
// between simulator and live-node windows (ordering in the log is
// preserved but equality itself ignores it).
func EqualAsMultiset(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]Event, len(a))
	bs := make([]Event, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Slice(as, func(i, j int) bool { return as[i].Less(as[j]) })
	sort.Slice(bs, func(i, j int) bool { return bs[i].Less(bs[j]) })
	for i := range as {
		if !as[i].Equal(bs[i]) {
			return false
		}
	}
	return true
}
