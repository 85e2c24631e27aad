// Package validate gates event logs before reconstruction. It rejects logs
// that are not totally ordered or that contain structurally invalid events;
// it never repairs them.
package validate

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/courtside/internal/domain/model"
)

const maxEventPoints = 3

// ValidatedLog is an immutable, totally ordered event log for one game.
type ValidatedLog struct {
	gameID string
	events []model.PlayEvent
}

// GameID returns the game the log belongs to.
func (l *ValidatedLog) GameID() string { return l.gameID }

// Len returns the number of events.
func (l *ValidatedLog) Len() int { return len(l.events) }

// At returns the i-th event by value.
func (l *ValidatedLog) At(i int) model.PlayEvent { return l.events[i] }

// Events returns a copy of the events.
func (l *ValidatedLog) Events() []model.PlayEvent {
	out := make([]model.PlayEvent, len(l.events))
	copy(out, l.events)
	return out
}

// FirstOrder returns the sequence order of the first event.
func (l *ValidatedLog) FirstOrder() int64 { return l.events[0].SequenceOrder }

// LastOrder returns the sequence order of the last event.
func (l *ValidatedLog) LastOrder() int64 { return l.events[len(l.events)-1].SequenceOrder }

// IndexOf returns the index of the event with the given order, or -1.
func (l *ValidatedLog) IndexOf(order int64) int {
	i := sort.Search(len(l.events), func(i int) bool { return l.events[i].SequenceOrder >= order })
	if i < len(l.events) && l.events[i].SequenceOrder == order {
		return i
	}
	return -1
}

// Next returns the order of the event following order, and false when order
// is the last event or not in the log.
func (l *ValidatedLog) Next(order int64) (int64, bool) {
	i := l.IndexOf(order)
	if i < 0 || i+1 >= len(l.events) {
		return 0, false
	}
	return l.events[i+1].SequenceOrder, true
}

// Validate checks events for one game and returns the immutable log.
// The input slice is copied; callers may reuse it.
func Validate(gameID string, events []model.PlayEvent) (*ValidatedLog, error) {
	if len(events) == 0 {
		return nil, &ValidationError{Kind: ErrEmptyLog, GameID: gameID, Index: -1, Detail: "no events"}
	}

	fail := func(kind error, i int, format string, args ...any) error {
		return &ValidationError{
			Kind:   kind,
			GameID: gameID,
			Order:  events[i].SequenceOrder,
			Index:  i,
			Detail: fmt.Sprintf(format, args...),
		}
	}

	started := make(map[int]bool)
	ended := make(map[int]bool)
	period := 0
	var lastClock int64 = -1

	for i := range events {
		e := &events[i]
		if e.GameID != "" && e.GameID != gameID {
			return nil, fail(ErrMixedGame, i, "event game %q", e.GameID)
		}
		if i > 0 && e.SequenceOrder <= events[i-1].SequenceOrder {
			return nil, fail(ErrOutOfOrder, i, "sequence order %d after %d", e.SequenceOrder, events[i-1].SequenceOrder)
		}
		if e.Period < 1 {
			return nil, fail(ErrOutOfOrder, i, "period %d", e.Period)
		}
		if e.Period < period {
			return nil, fail(ErrOutOfOrder, i, "period %d after period %d", e.Period, period)
		}
		if e.ClockRemaining < 0 {
			return nil, fail(ErrClockRegression, i, "negative clock %s", e.ClockRemaining)
		}
		if e.Points < 0 || e.Points > maxEventPoints {
			return nil, fail(ErrInvalidEvent, i, "points %d", e.Points)
		}

		if e.Period != period {
			period = e.Period
			lastClock = -1
		}

		switch e.EventType {
		case model.EventPeriodStart:
			if started[e.Period] {
				return nil, fail(ErrPeriodBoundary, i, "duplicate start of period %d", e.Period)
			}
			if ended[e.Period] {
				return nil, fail(ErrPeriodBoundary, i, "period %d ends before it starts", e.Period)
			}
			started[e.Period] = true
			// A period start resets the clock.
			lastClock = -1
		case model.EventPeriodEnd:
			if ended[e.Period] {
				return nil, fail(ErrPeriodBoundary, i, "duplicate end of period %d", e.Period)
			}
			ended[e.Period] = true
		}

		clock := int64(e.ClockRemaining)
		if lastClock >= 0 && clock > lastClock {
			return nil, fail(ErrClockRegression, i, "clock %s after %s in period %d",
				model.FormatClock(e.ClockRemaining), model.FormatClock(time.Duration(lastClock)), e.Period)
		}
		lastClock = clock
	}

	log := &ValidatedLog{gameID: gameID, events: make([]model.PlayEvent, len(events))}
	copy(log.events, events)
	return log, nil
}
