package draw

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdraw/drawbot/internal/domain"
)

func makeParticipants(n int) []domain.Participant {
	participants := make([]domain.Participant, n)
	for i := range participants {
		participants[i] = domain.Participant{
			ID:      uuid.New(),
			ShortID: 100000 + i,
		}
	}
	return participants
}

func shortIDSet(ps []domain.Participant) map[int]bool {
	set := make(map[int]bool, len(ps))
	for _, p := range ps {
		set[p.ShortID] = true
	}
	return set
}

func TestSelectWinnersReturnsDistinctMembers(t *testing.T) {
	participants := makeParticipants(10)

	for k := 0; k <= 12; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			winners := SelectWinners(participants, nil, k)

			want := k
			if want > len(participants) {
				want = len(participants)
			}
			if want < 0 {
				want = 0
			}
			require.Len(t, winners, want)

			pool := shortIDSet(participants)
			seen := make(map[int]bool)
			for _, w := range winners {
				assert.True(t, pool[w.ShortID], "winner must come from the input set")
				assert.False(t, seen[w.ShortID], "no participant may be selected twice")
				seen[w.ShortID] = true
			}
		})
	}
}

func TestSelectWinnersExcludesAlreadyWon(t *testing.T) {
	participants := makeParticipants(10)

	won := []domain.WinnerRecord{
		{ShortID: participants[0].ShortID},
		{ShortID: participants[5].ShortID},
	}

	// Randomized selection: exercise repeatedly to catch leakage
	for i := 0; i < 50; i++ {
		winners := SelectWinners(participants, won, 8)
		require.Len(t, winners, 8)
		for _, w := range winners {
			assert.NotEqual(t, participants[0].ShortID, w.ShortID)
			assert.NotEqual(t, participants[5].ShortID, w.ShortID)
		}
	}
}

func TestSelectWinnersEveryoneAlreadyWon(t *testing.T) {
	participants := makeParticipants(3)
	won := make([]domain.WinnerRecord, len(participants))
	for i, p := range participants {
		won[i] = domain.WinnerRecord{ShortID: p.ShortID}
	}

	assert.Empty(t, SelectWinners(participants, won, 3))
}

func TestSelectWinnersEmptyInputs(t *testing.T) {
	assert.Empty(t, SelectWinners(nil, nil, 3))
	assert.Empty(t, SelectWinners(makeParticipants(5), nil, 0))
	assert.Empty(t, SelectWinners(makeParticipants(5), nil, -1))
}

// Fewer eligible participants than requested winners: return all of
// them, never error, never pad.
func TestSelectWinnersFewerEligibleThanRequested(t *testing.T) {
	participants := makeParticipants(4)
	won := []domain.WinnerRecord{
		{ShortID: participants[0].ShortID},
		{ShortID: participants[1].ShortID},
		{ShortID: participants[2].ShortID},
	}

	winners := SelectWinners(participants, won, 3)
	require.Len(t, winners, 1)
	assert.Equal(t, participants[3].ShortID, winners[0].ShortID)
}

func TestSelectWinnersDoesNotMutateInput(t *testing.T) {
	participants := makeParticipants(6)
	original := make([]domain.Participant, len(participants))
	copy(original, participants)

	SelectWinners(participants, nil, 3)

	assert.Equal(t, original, participants)
}
