package transaction

import "time"

// RecordedEvent is emitted once per successful sale.
type RecordedEvent struct {
	Record     Record
	OccurredAt time.Time
}

func (RecordedEvent) EventName() string { return "transaction.recorded" }

func NewRecordedEvent(r Record) RecordedEvent {
	return RecordedEvent{Record: r, OccurredAt: time.Now().UTC()}
}
