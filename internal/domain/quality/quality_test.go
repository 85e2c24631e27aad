package quality_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/linker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/possession"
	"github.com/okian/courtside/internal/domain/quality"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/validate"
	"github.com/okian/courtside/internal/testgames"
	. "github.com/smartystreets/goconvey/convey"
)

func derive(g model.Game) quality.Input {
	log, err := validate.Validate(g.GameID, g.Events)
	So(err, ShouldBeNil)
	index := roster.NewIndex(g.Roster)
	teams := g.Teams()

	lt, err := lineup.Track(context.Background(), log, index, teams)
	So(err, ShouldBeNil)
	pt, err := possession.Track(context.Background(), log, index, teams)
	So(err, ShouldBeNil)
	links, unlinked := linker.Link(log, pt.Possessions)

	return quality.Input{
		Log:         log,
		Teams:       teams,
		FinalScore:  g.FinalScore,
		Lineups:     lt.Lineups,
		Possessions: pt.Possessions,
		Links:       links,
		Unlinked:    unlinked,
		Warnings:    append(lt.Warnings, pt.Warnings...),
	}
}

func result(r model.Report, check model.Check) model.CheckResult {
	for _, c := range r.Checks {
		if c.Check == check {
			return c
		}
	}
	return model.CheckResult{}
}

func TestCheck_CleanGame(t *testing.T) {
	Convey("Given a consistent generated game", t, func() {
		in := derive(testgames.Generate("gen", 42))

		r := quality.Check(in)

		Convey("Then every check passes and the game succeeds", func() {
			So(r.GameID, ShouldEqual, "gen")
			So(r.Checks, ShouldHaveLength, 8)
			for _, c := range r.Checks {
				So(c.Passed, ShouldBeTrue)
			}
			So(r.Status, ShouldEqual, model.StatusSuccess)
			So(r.QualityFlag, ShouldBeFalse)
		})
	})
}

func TestCheck_ScoreReconciliation(t *testing.T) {
	Convey("Given a final score the events do not support", t, func() {
		g := testgames.Generate("gen", 3)
		g.FinalScore[testgames.Home] += 2
		r := quality.Check(derive(g))

		c := result(r, model.CheckScoreReconciliation)
		So(c.Passed, ShouldBeFalse)
		So(c.Violations, ShouldHaveLength, 1)
		So(c.Violations[0].TeamID, ShouldEqual, testgames.Home)
		So(r.Status, ShouldEqual, model.StatusSuccessWithWarnings)
		So(r.QualityFlag, ShouldBeTrue)
	})

	Convey("Given a possession whose recorded points disagree with its events", t, func() {
		in := derive(testgames.NewBuilder("g1").StartPeriod(1).
			Shot(testgames.Home, 1, 3, true).
			EndPeriod().
			Build())
		in.Possessions[0].PointsScored = 2

		c := result(quality.Check(in), model.CheckScoreReconciliation)

		Convey("Then the offending range is reported", func() {
			So(c.Passed, ShouldBeFalse)
			So(c.Violations[0].StartOrder, ShouldEqual, 1)
			So(c.Violations[0].EndOrder, ShouldEqual, 2)
		})
	})

	Convey("Given no final score", t, func() {
		g := testgames.Generate("gen", 5)
		g.FinalScore = nil

		c := result(quality.Check(derive(g)), model.CheckScoreReconciliation)
		So(c.Passed, ShouldBeTrue)
		So(c.Violations, ShouldHaveLength, 1)
		So(c.Violations[0].Severity, ShouldEqual, model.SeverityInfo)
	})
}

func TestCheck_Partition(t *testing.T) {
	Convey("Given possessions with a gap", t, func() {
		in := derive(testgames.Generate("gen", 11))
		in.Possessions = append(in.Possessions[:2:2], in.Possessions[3:]...)
		for i := range in.Possessions {
			in.Possessions[i].PossessionNumber = i + 1
		}
		in.Links, in.Unlinked = linker.Link(in.Log, in.Possessions)

		r := quality.Check(in)

		So(result(r, model.CheckPossessionPartition).Passed, ShouldBeFalse)
		So(result(r, model.CheckLinkCoverage).Passed, ShouldBeFalse)
		So(result(r, model.CheckLineupCardinality).Passed, ShouldBeTrue)
	})

	Convey("Given possessions with a gap reported by the linker", t, func() {
		in := derive(testgames.Generate("gen", 13))
		in.Possessions = append(in.Possessions[:2:2], in.Possessions[3:]...)
		for i := range in.Possessions {
			in.Possessions[i].PossessionNumber = i + 1
		}
		in.Links, in.Unlinked = linker.Link(in.Log, in.Possessions)
		So(in.Unlinked, ShouldNotBeEmpty)

		c := result(quality.Check(in), model.CheckLinkCoverage)

		So(c.Violations, ShouldHaveLength, len(in.Unlinked))
		for i, v := range c.Violations {
			So(v.StartOrder, ShouldEqual, in.Unlinked[i])
			So(v.Message, ShouldContainSubstring, "belongs to no possession")
		}
	})

	Convey("Given a missing link the linker did not report", t, func() {
		in := derive(testgames.Generate("gen", 14))
		dropped := in.Links[0].PlaySequenceOrder
		in.Links = in.Links[1:]
		in.Unlinked = nil

		c := result(quality.Check(in), model.CheckLinkCoverage)

		So(c.Passed, ShouldBeFalse)
		So(c.Violations, ShouldHaveLength, 1)
		So(c.Violations[0].StartOrder, ShouldEqual, dropped)
		So(c.Violations[0].Message, ShouldContainSubstring, "not reported unlinked")
	})

	Convey("Given misnumbered possessions", t, func() {
		in := derive(testgames.Generate("gen", 12))
		in.Possessions[1].PossessionNumber = 7

		c := result(quality.Check(in), model.CheckPossessionPartition)
		So(c.Passed, ShouldBeFalse)
	})
}

func TestCheck_Lineups(t *testing.T) {
	Convey("Given a lineup with six players", t, func() {
		in := derive(testgames.Generate("gen", 13))
		in.Lineups[0].Players = append(in.Lineups[0].Players, "extra")

		c := result(quality.Check(in), model.CheckLineupCardinality)
		So(c.Passed, ShouldBeFalse)
		So(c.Violations[0].TeamID, ShouldEqual, in.Lineups[0].TeamID)
	})

	Convey("Given a short lineup after an ejection", t, func() {
		in := derive(testgames.Generate("gen", 14))
		in.Lineups[0].Players = in.Lineups[0].Players[:4]
		in.Lineups[0].Exception = model.ExceptionEjection

		c := result(quality.Check(in), model.CheckLineupCardinality)
		So(c.Passed, ShouldBeTrue)
		So(c.Violations[0].Severity, ShouldEqual, model.SeverityInfo)
	})

	Convey("Given a gap between two lineups", t, func() {
		in := derive(testgames.Generate("gen", 15))
		So(len(in.Lineups), ShouldBeGreaterThan, 2)
		in.Lineups[1].StartOrder++

		c := result(quality.Check(in), model.CheckLineupContiguity)
		So(c.Passed, ShouldBeFalse)
	})
}

func TestCheck_EventSequence(t *testing.T) {
	Convey("Given a rebound right after a made shot", t, func() {
		in := derive(testgames.NewBuilder("g1").StartPeriod(1).
			Shot(testgames.Home, 1, 2, true).
			Rebound(testgames.Away, 1, false).
			EndPeriod().
			Build())

		r := quality.Check(in)

		c := result(r, model.CheckEventSequence)
		So(c.Passed, ShouldBeFalse)
		So(c.Violations[0].StartOrder, ShouldEqual, 2)
		So(c.Violations[0].EndOrder, ShouldEqual, 3)
		So(r.Status, ShouldEqual, model.StatusSuccessWithWarnings)
	})
}

func TestCheck_Resolution(t *testing.T) {
	Convey("Given only informational tracker notes", t, func() {
		in := derive(testgames.Generate("gen", 21))
		in.Warnings = []model.Violation{{Severity: model.SeverityInfo, Message: "resolved by name"}}

		r := quality.Check(in)
		So(result(r, model.CheckResolution).Passed, ShouldBeTrue)
		So(r.Status, ShouldEqual, model.StatusSuccess)
	})

	Convey("Given a tracker warning", t, func() {
		in := derive(testgames.Generate("gen", 22))
		in.Warnings = []model.Violation{{Severity: model.SeverityWarning, Message: "unresolved substitution"}}

		r := quality.Check(in)
		So(result(r, model.CheckResolution).Passed, ShouldBeFalse)
		So(result(r, model.CheckResolution).Violations[0].Check, ShouldEqual, model.CheckResolution)
		So(r.Status, ShouldEqual, model.StatusSuccessWithWarnings)
	})
}

func TestUnprocessable(t *testing.T) {
	Convey("Given a structural error", t, func() {
		_, err := validate.Validate("g1", []model.PlayEvent{
			{SequenceOrder: 2, Period: 1},
			{SequenceOrder: 1, Period: 1},
		})
		So(err, ShouldNotBeNil)

		r := quality.Unprocessable("g1", err)

		So(r.Status, ShouldEqual, model.StatusFailed)
		So(r.QualityFlag, ShouldBeTrue)
		So(r.Checks, ShouldHaveLength, 1)
		So(r.Checks[0].Check, ShouldEqual, model.CheckStructure)
		So(r.Checks[0].Violations[0].StartOrder, ShouldEqual, 1)
	})

	Convey("Given a plain error", t, func() {
		r := quality.Unprocessable("g1", errors.New("timed out"))
		So(r.Status, ShouldEqual, model.StatusFailed)
		So(r.Checks[0].Violations[0].Message, ShouldEqual, "timed out")
	})
}
