package possession

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/courtside/internal/domain/model"
)

var ftSequencePattern = regexp.MustCompile(`(?i)(\d+)\s*of\s*(\d+)`)

func qualifiers(e *model.PlayEvent) string {
	return strings.ToLower(e.Subtype + " " + e.Description)
}

func isTechnical(e *model.PlayEvent) bool {
	return strings.Contains(qualifiers(e), "technical")
}

func isFlagrant(e *model.PlayEvent) bool {
	return strings.Contains(qualifiers(e), "flagrant")
}

func isShootingFoul(e *model.PlayEvent) bool {
	return e.EventType == model.EventFoul && strings.Contains(qualifiers(e), "shooting")
}

func made(e *model.PlayEvent) bool { return e.Points > 0 }

// freeThrowNumber reads "N of M" from the subtype, then the description.
func freeThrowNumber(e *model.PlayEvent) (n, total int, ok bool) {
	for _, text := range []string{e.Subtype, e.Description} {
		match := ftSequencePattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		a, errA := strconv.Atoi(match[1])
		b, errB := strconv.Atoi(match[2])
		if errA != nil || errB != nil || a < 1 || b < 1 {
			continue
		}
		return a, b, true
	}
	return 0, 0, false
}

// continuesAndOne reports whether e, acted by actor, still belongs to an
// and-1 sequence of team. A turnover by team ends the sequence itself and
// keeps its points.
func continuesAndOne(e *model.PlayEvent, actor, team string) bool {
	switch e.EventType {
	case model.EventFoul, model.EventSubstitution, model.EventOther:
		return true
	case model.EventTurnover:
		return actor == team
	case model.EventFreeThrow:
		return !isTechnical(e) && (actor == "" || actor == team)
	}
	return false
}

// continuesTechnical reports whether e still belongs to a technical free
// throw possession of team. actor is the resolved team of e.
func continuesTechnical(e *model.PlayEvent, actor, team string) bool {
	switch e.EventType {
	case model.EventFoul, model.EventSubstitution, model.EventOther:
		return true
	case model.EventFreeThrow:
		return isTechnical(e) && actor == team
	}
	return false
}
