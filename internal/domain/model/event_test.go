package model_test

import (
	"testing"

	"github.com/okian/courtside/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventType(t *testing.T) {
	Convey("Given event types", t, func() {
		Convey("Then enumerated types are known", func() {
			So(model.EventShotMade.Known(), ShouldBeTrue)
			So(model.EventPeriodEnd.Known(), ShouldBeTrue)
			So(model.EventOther.Known(), ShouldBeTrue)
		})

		Convey("Then anything else is unknown", func() {
			So(model.EventType("jump_ball").Known(), ShouldBeFalse)
			So(model.EventType("").Known(), ShouldBeFalse)
		})
	})
}

func TestGameTeams(t *testing.T) {
	Convey("Given a game", t, func() {
		Convey("When home and away are explicit", func() {
			g := model.Game{HomeTeamID: "NYK", AwayTeamID: "BOS"}

			Convey("Then they are returned home first", func() {
				So(g.Teams(), ShouldResemble, []string{"NYK", "BOS"})
			})
		})

		Convey("When teams come from the roster", func() {
			g := model.Game{Roster: []model.RosterPlayer{
				{PlayerID: "p1", TeamID: "MIA"},
				{PlayerID: "p2", TeamID: "ATL"},
				{PlayerID: "p3", TeamID: "MIA"},
			}}

			Convey("Then distinct ids are returned sorted", func() {
				So(g.Teams(), ShouldResemble, []string{"ATL", "MIA"})
			})
		})
	})
}

func TestOpponent(t *testing.T) {
	Convey("Given two teams", t, func() {
		teams := []string{"A", "B"}

		So(model.Opponent(teams, "A"), ShouldEqual, "B")
		So(model.Opponent(teams, "B"), ShouldEqual, "A")
		So(model.Opponent(teams, "C"), ShouldEqual, "")
		So(model.Opponent(teams, ""), ShouldEqual, "")
		So(model.Opponent([]string{"A"}, "A"), ShouldEqual, "")
	})
}

func TestReportViolations(t *testing.T) {
	Convey("Given a report with failing checks", t, func() {
		r := model.Result{
			GameID: "g1",
			Status: model.StatusSuccessWithWarnings,
			Report: model.Report{Checks: []model.CheckResult{
				{Check: model.CheckLineupCardinality, Passed: true},
				{Check: model.CheckScoreReconciliation, Violations: []model.Violation{
					{Check: model.CheckScoreReconciliation, Severity: model.SeverityError},
					{Check: model.CheckScoreReconciliation, Severity: model.SeverityError},
				}},
			}},
			Possessions: make([]model.PossessionEvent, 3),
		}

		Convey("Then the summary counts every violation", func() {
			s := r.Summarize()
			So(s.Violations, ShouldEqual, 2)
			So(s.Possessions, ShouldEqual, 3)
			So(s.Status, ShouldEqual, model.StatusSuccessWithWarnings)
		})
	})
}
