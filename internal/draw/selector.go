package draw

import (
	"math/rand"

	"github.com/eventdraw/drawbot/internal/domain"
)

// SelectWinners draws up to k participants uniformly at random without
// replacement from the subset that has not already won. Exclusion is
// recomputed from the ledger on every call, so repeated rounds never
// re-select an earlier winner.
//
// Never errors: an empty eligible set or k <= 0 yields an empty result,
// and k larger than the eligible count yields everyone still eligible.
func SelectWinners(participants []domain.Participant, alreadyWon []domain.WinnerRecord, k int) []domain.Participant {
	if k <= 0 || len(participants) == 0 {
		return nil
	}

	won := make(map[int]struct{}, len(alreadyWon))
	for _, w := range alreadyWon {
		won[w.ShortID] = struct{}{}
	}

	eligible := make([]domain.Participant, 0, len(participants))
	for _, p := range participants {
		if _, ok := won[p.ShortID]; !ok {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	// Fisher-Yates shuffle
	for i := len(eligible) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}

	if k > len(eligible) {
		k = len(eligible)
	}
	return eligible[:k]
}
