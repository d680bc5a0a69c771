package session

import "time"

// Action distinguishes the two kinds of attendance transitions.
type Action string

const (
	ActionCheckIn  Action = "check-in"
	ActionCheckOut Action = "check-out"
)

// Annotations attached to check-out records. Check-in records carry the
// recognized identity label instead.
const (
	AnnotationManual       = "manual"
	AnnotationManualEarly  = "manual-early"
	AnnotationAutoExit     = "auto-exit"
	AnnotationAutoDeadline = "auto-8pm"
)

// Record is one immutable attendance event.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	ZoneName   string    `json:"zone_name"`
	Annotation string    `json:"annotation,omitempty"`
}

// Ledger is the append-only, chronological sequence of attendance records
// for one session. Derived queries walk the sequence on demand; it stays
// single-session small.
type Ledger struct {
	records []Record
}

// Append adds a record. Records are never mutated or removed.
func (l *Ledger) Append(r Record) {
	l.records = append(l.records, r)
}

// All returns the records in insertion (chronological) order.
func (l *Ledger) All() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// LastOfAction returns the most recent record with the given action.
func (l *Ledger) LastOfAction(a Action) (Record, bool) {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Action == a {
			return l.records[i], true
		}
	}
	return Record{}, false
}

// CountOfAction returns how many records carry the given action.
func (l *Ledger) CountOfAction(a Action) int {
	n := 0
	for _, r := range l.records {
		if r.Action == a {
			n++
		}
	}
	return n
}
