package utils

import (
	"sort"
	"time"
)

// PointTiers are the points a question awards per rank
type PointTiers struct {
	Winner         int
	RunnerUp       int
	SecondRunnerUp int
	Participant    int
}

// Standing is a team's best result on a question, as seen by the ranker
type Standing struct {
	EntryID      uint
	TeamID       string
	SubmissionID uint
	Passed       int
	SubmittedAt  time.Time
	Rank         *int
	Points       int
}

// lowBandOffset pushes single-pass results below the podium
const lowBandOffset = 4

// RankStandings orders standings by passed test cases (desc) then submission time (asc)
// and assigns rank and points.
// More than one passed test case: rank = position + 1.
// Exactly one: rank = position + 4, never on the podium, participant points.
// None: no rank, no points.
func RankStandings(standings []Standing, tiers PointTiers) []Standing {
	ranked := make([]Standing, len(standings))
	copy(ranked, standings)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Passed != ranked[j].Passed {
			return ranked[i].Passed > ranked[j].Passed
		}
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].SubmissionID < ranked[j].SubmissionID
	})

	for i := range ranked {
		switch {
		case ranked[i].Passed > 1:
			rank := i + 1
			ranked[i].Rank = &rank
			ranked[i].Points = PointsForRank(rank, tiers)
		case ranked[i].Passed == 1:
			rank := i + lowBandOffset
			ranked[i].Rank = &rank
			ranked[i].Points = tiers.Participant
		default:
			ranked[i].Rank = nil
			ranked[i].Points = 0
		}
	}
	return ranked
}

// PointsForRank maps a podium rank to its tier, every other rank gets participant points
func PointsForRank(rank int, tiers PointTiers) int {
	switch rank {
	case 1:
		return tiers.Winner
	case 2:
		return tiers.RunnerUp
	case 3:
		return tiers.SecondRunnerUp
	}
	return tiers.Participant
}

// ShouldUpdateLeaderboard is the gate: only a strict improvement over the previous best
// (or a first result) touches the leaderboard
func ShouldUpdateLeaderboard(previousBest *int, passed int) bool {
	return previousBest == nil || passed > *previousBest
}
