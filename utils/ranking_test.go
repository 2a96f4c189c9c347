package utils

import (
	"testing"
	"time"
)

var tiers = PointTiers{Winner: 30, RunnerUp: 20, SecondRunnerUp: 10, Participant: 5}

func at(minutes int) time.Time {
	return time.Date(2025, 3, 1, 10, minutes, 0, 0, time.UTC)
}

func rankOf(t *testing.T, s Standing) int {
	t.Helper()
	if s.Rank == nil {
		t.Fatalf("expected team %s to be ranked", s.TeamID)
	}
	return *s.Rank
}

func TestRankStandings_PodiumExample(t *testing.T) {
	ranked := RankStandings([]Standing{
		{TeamID: "C", Passed: 8, SubmittedAt: at(20), SubmissionID: 3},
		{TeamID: "A", Passed: 10, SubmittedAt: at(30), SubmissionID: 1},
		{TeamID: "B", Passed: 8, SubmittedAt: at(10), SubmissionID: 2},
	}, tiers)

	want := []struct {
		team   string
		rank   int
		points int
	}{{"A", 1, 30}, {"B", 2, 20}, {"C", 3, 10}}
	for i, w := range want {
		if ranked[i].TeamID != w.team || rankOf(t, ranked[i]) != w.rank || ranked[i].Points != w.points {
			t.Fatalf("position %d: expected %s rank %d points %d, got %s rank %v points %d",
				i, w.team, w.rank, w.points, ranked[i].TeamID, ranked[i].Rank, ranked[i].Points)
		}
	}
}

func TestRankStandings_ParticipantsBeyondPodium(t *testing.T) {
	ranked := RankStandings([]Standing{
		{TeamID: "A", Passed: 9, SubmittedAt: at(1)},
		{TeamID: "B", Passed: 8, SubmittedAt: at(2)},
		{TeamID: "C", Passed: 7, SubmittedAt: at(3)},
		{TeamID: "D", Passed: 6, SubmittedAt: at(4)},
		{TeamID: "E", Passed: 5, SubmittedAt: at(5)},
	}, tiers)
	if rankOf(t, ranked[3]) != 4 || ranked[3].Points != 5 {
		t.Fatalf("expected D rank 4 with participant points, got %v/%d", ranked[3].Rank, ranked[3].Points)
	}
	if rankOf(t, ranked[4]) != 5 || ranked[4].Points != 5 {
		t.Fatalf("expected E rank 5 with participant points, got %v/%d", ranked[4].Rank, ranked[4].Points)
	}
}

func TestRankStandings_WeakResultsNeverOnPodium(t *testing.T) {
	ranked := RankStandings([]Standing{
		{TeamID: "one", Passed: 1, SubmittedAt: at(1)},
		{TeamID: "zero", Passed: 0, SubmittedAt: at(0)},
		{TeamID: "two", Passed: 2, SubmittedAt: at(5)},
	}, tiers)

	if ranked[0].TeamID != "two" || rankOf(t, ranked[0]) != 1 || ranked[0].Points != 30 {
		t.Fatalf("expected team two to win, got %+v", ranked[0])
	}
	if ranked[1].TeamID != "one" {
		t.Fatalf("expected team one second in order, got %s", ranked[1].TeamID)
	}
	if r := rankOf(t, ranked[1]); r <= 3 {
		t.Fatalf("a single passed test case must never reach the podium, got rank %d", r)
	}
	if ranked[1].Points != 5 {
		t.Fatalf("expected participant points, got %d", ranked[1].Points)
	}
	if ranked[2].Rank != nil || ranked[2].Points != 0 {
		t.Fatalf("zero passed must be unranked with no points, got %+v", ranked[2])
	}
}

func TestRankStandings_TiesBrokenByEarliestAchievement(t *testing.T) {
	ranked := RankStandings([]Standing{
		{TeamID: "late", Passed: 4, SubmittedAt: at(9), SubmissionID: 1},
		{TeamID: "early", Passed: 4, SubmittedAt: at(3), SubmissionID: 2},
		{TeamID: "sameTimeHigherID", Passed: 4, SubmittedAt: at(3), SubmissionID: 5},
	}, tiers)
	order := []string{"early", "sameTimeHigherID", "late"}
	for i, team := range order {
		if ranked[i].TeamID != team || rankOf(t, ranked[i]) != i+1 {
			t.Fatalf("position %d: expected %s, got %s", i, team, ranked[i].TeamID)
		}
	}
}

func TestRankStandings_DoesNotMutateInput(t *testing.T) {
	in := []Standing{{TeamID: "B", Passed: 1}, {TeamID: "A", Passed: 5}}
	RankStandings(in, tiers)
	if in[0].TeamID != "B" || in[0].Rank != nil {
		t.Fatalf("input slice was modified: %+v", in)
	}
}

func TestShouldUpdateLeaderboard(t *testing.T) {
	three := 3
	if !ShouldUpdateLeaderboard(nil, 0) {
		t.Fatalf("first result must open an entry")
	}
	if ShouldUpdateLeaderboard(&three, 3) {
		t.Fatalf("equal result must not update the leaderboard")
	}
	if ShouldUpdateLeaderboard(&three, 2) {
		t.Fatalf("worse result must not update the leaderboard")
	}
	if !ShouldUpdateLeaderboard(&three, 4) {
		t.Fatalf("strict improvement must update the leaderboard")
	}
}
