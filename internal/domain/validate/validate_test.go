package validate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/validate"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(order int64, period int, clock time.Duration, typ model.EventType) model.PlayEvent {
	return model.PlayEvent{
		GameID:         "g1",
		SequenceOrder:  order,
		Period:         period,
		ClockRemaining: clock,
		EventType:      typ,
	}
}

func TestValidate_Accepts(t *testing.T) {
	Convey("Given a well ordered log spanning two periods", t, func() {
		events := []model.PlayEvent{
			ev(1, 1, 12*time.Minute, model.EventPeriodStart),
			ev(2, 1, 11*time.Minute, model.EventShotMissed),
			ev(3, 1, 11*time.Minute, model.EventRebound),
			ev(4, 1, 0, model.EventPeriodEnd),
			ev(5, 2, 12*time.Minute, model.EventPeriodStart),
			ev(7, 2, 30*time.Second, model.EventShotMade),
			ev(9, 2, 0, model.EventPeriodEnd),
		}

		log, err := validate.Validate("g1", events)

		Convey("Then it is accepted", func() {
			So(err, ShouldBeNil)
			So(log.GameID(), ShouldEqual, "g1")
			So(log.Len(), ShouldEqual, 7)
			So(log.FirstOrder(), ShouldEqual, 1)
			So(log.LastOrder(), ShouldEqual, 9)
		})

		Convey("Then orders can be navigated", func() {
			So(log.IndexOf(7), ShouldEqual, 5)
			So(log.IndexOf(6), ShouldEqual, -1)
			next, ok := log.Next(5)
			So(ok, ShouldBeTrue)
			So(next, ShouldEqual, 7)
			_, ok = log.Next(9)
			So(ok, ShouldBeFalse)
		})

		Convey("Then the log is isolated from the caller's slice", func() {
			events[1].Points = 3
			So(log.At(1).Points, ShouldEqual, 0)
			copied := log.Events()
			copied[0].TeamID = "X"
			So(log.At(0).TeamID, ShouldEqual, "")
		})
	})
}

func TestValidate_Rejects(t *testing.T) {
	Convey("Given structurally broken logs", t, func() {
		Convey("When the log is empty", func() {
			_, err := validate.Validate("g1", nil)
			So(errors.Is(err, validate.ErrEmptyLog), ShouldBeTrue)
		})

		Convey("When sequence order repeats", func() {
			_, err := validate.Validate("g1", []model.PlayEvent{
				ev(1, 1, time.Minute, model.EventOther),
				ev(1, 1, time.Minute, model.EventOther),
			})
			So(errors.Is(err, validate.ErrOutOfOrder), ShouldBeTrue)

			var verr *validate.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Index, ShouldEqual, 1)
			So(verr.Order, ShouldEqual, 1)
		})

		Convey("When the period goes backwards", func() {
			_, err := validate.Validate("g1", []model.PlayEvent{
				ev(1, 2, time.Minute, model.EventOther),
				ev(2, 1, time.Minute, model.EventOther),
			})
			So(errors.Is(err, validate.ErrOutOfOrder), ShouldBeTrue)
		})

		Convey("When the clock increases inside a period", func() {
			_, err := validate.Validate("g1", []model.PlayEvent{
				ev(1, 1, time.Minute, model.EventOther),
				ev(2, 1, 2*time.Minute, model.EventOther),
			})
			So(errors.Is(err, validate.ErrClockRegression), ShouldBeTrue)
		})

		Convey("When a period ends before it starts", func() {
			_, err := validate.Validate("g1", []model.PlayEvent{
				ev(1, 1, 0, model.EventPeriodEnd),
				ev(2, 1, 0, model.EventPeriodStart),
			})
			So(errors.Is(err, validate.ErrPeriodBoundary), ShouldBeTrue)
		})

		Convey("When a period ends twice", func() {
			_, err := validate.Validate("g1", []model.PlayEvent{
				ev(1, 1, 0, model.EventPeriodEnd),
				ev(2, 1, 0, model.EventPeriodEnd),
			})
			So(errors.Is(err, validate.ErrPeriodBoundary), ShouldBeTrue)
		})

		Convey("When an event claims four points", func() {
			bad := ev(1, 1, time.Minute, model.EventShotMade)
			bad.Points = 4
			_, err := validate.Validate("g1", []model.PlayEvent{bad})
			So(errors.Is(err, validate.ErrInvalidEvent), ShouldBeTrue)
		})

		Convey("When an event belongs to another game", func() {
			other := ev(1, 1, time.Minute, model.EventOther)
			other.GameID = "g2"
			_, err := validate.Validate("g1", []model.PlayEvent{other})
			So(errors.Is(err, validate.ErrMixedGame), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "g1")
		})
	})
}

func TestValidate_ClockResetsAtPeriodStart(t *testing.T) {
	Convey("Given a period start after events with a lower clock", t, func() {
		_, err := validate.Validate("g1", []model.PlayEvent{
			ev(1, 1, 5*time.Minute, model.EventOther),
			ev(2, 1, 12*time.Minute, model.EventPeriodStart),
			ev(3, 1, 11*time.Minute, model.EventOther),
		})

		Convey("Then the clock increase is tolerated", func() {
			So(err, ShouldBeNil)
		})
	})
}
