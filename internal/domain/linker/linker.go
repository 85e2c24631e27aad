// Package linker joins every event of a game to the possession that
// contains it.
package linker

import (
	"sort"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/validate"
)

// Link returns one link per event of log covered by possessions, in log
// order, and the orders of events no possession covers. possessions must be
// sorted by start order and must not overlap.
func Link(log *validate.ValidatedLog, possessions []model.PossessionEvent) ([]model.PlayPossessionLink, []int64) {
	links := make([]model.PlayPossessionLink, 0, log.Len())
	var unlinked []int64

	for i := 0; i < log.Len(); i++ {
		order := log.At(i).SequenceOrder
		p, ok := find(possessions, order)
		if !ok {
			unlinked = append(unlinked, order)
			continue
		}
		links = append(links, model.PlayPossessionLink{
			GameID:            log.GameID(),
			PlaySequenceOrder: order,
			PossessionNumber:  p.PossessionNumber,
		})
	}
	return links, unlinked
}

func find(possessions []model.PossessionEvent, order int64) (*model.PossessionEvent, bool) {
	i := sort.Search(len(possessions), func(i int) bool { return possessions[i].EndOrder >= order })
	if i == len(possessions) || !possessions[i].Contains(order) {
		return nil, false
	}
	return &possessions[i], true
}
