package repository

import (
	"context"
	"testing"

	"github.com/yuqie6/st-leaderboard/internal/testutil"
)

func TestQueryRepository_LeaderboardOrdering(t *testing.T) {
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQueryRepository(db)

	r := fx.Reset("2024-03-10", 0)
	site := fx.Site(r.ResetID, "X1-AA-GATE")
	b := fx.Agent(r.ResetID, site.ID, "B", "X1-AA-1")
	a := fx.Agent(r.ResetID, site.ID, "A", "X1-AA-2")
	c := fx.Agent(r.ResetID, site.ID, "C", "X1-AA-3")

	old := fx.Job(r.ResetID, 60_000, 1)
	fx.AgentLog(old.ID, c.ID, 9_999, 1)
	latest := fx.Job(r.ResetID, 120_000, 2)
	fx.AgentLog(latest.ID, b.ID, 500, 3)
	fx.AgentLog(latest.ID, a.ID, 500, 5)
	fx.AgentLog(latest.ID, c.ID, 300, 1)

	rows, err := repo.Leaderboard(context.Background(), r.ResetID)
	if err != nil {
		t.Fatalf("Leaderboard error: %v", err)
	}
	want := []struct {
		sym     string
		credits int64
		ships   int64
	}{{"A", 500, 5}, {"B", 500, 3}, {"C", 300, 1}}
	if len(rows) != len(want) {
		t.Fatalf("rows=%+v", rows)
	}
	for i, w := range want {
		if rows[i].AgentSymbol != w.sym || rows[i].Credits != w.credits || rows[i].ShipCount != w.ships {
			t.Fatalf("rows[%d]=%+v, want %+v", i, rows[i], w)
		}
		if rows[i].JumpGateWaypointSymbol != "X1-AA-GATE" {
			t.Fatalf("jump gate=%q", rows[i].JumpGateWaypointSymbol)
		}
	}
}

func TestQueryRepository_AllTimePerformanceTieBreak(t *testing.T) {
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQueryRepository(db)

	r1 := fx.Reset("2024-03-10", 0)
	s1 := fx.Site(r1.ResetID, "X1-AA-GATE")
	zed := fx.Agent(r1.ResetID, s1.ID, "ZED", "X1-AA-1")
	amy := fx.Agent(r1.ResetID, s1.ID, "AMY", "X1-AA-2")
	j1 := fx.Job(r1.ResetID, 60_000, 1)
	fx.AgentLog(j1.ID, zed.ID, 100, 1)
	fx.AgentLog(j1.ID, amy.ID, 100, 1)

	r2 := fx.Reset("2024-03-24", 0)
	s2 := fx.Site(r2.ResetID, "X1-BB-GATE")
	bob := fx.Agent(r2.ResetID, s2.ID, "BOB", "X1-BB-1")
	j2 := fx.Job(r2.ResetID, 60_000, 1)
	fx.AgentLog(j2.ID, bob.ID, 50, 1)

	rows, err := repo.AllTimePerformance(context.Background())
	if err != nil {
		t.Fatalf("AllTimePerformance error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%+v", rows)
	}
	if rows[0].AgentSymbol != "AMY" || rows[0].Rank != 1 || rows[1].AgentSymbol != "ZED" || rows[1].Rank != 2 {
		t.Fatalf("tie-break wrong: %+v", rows[:2])
	}
	if rows[2].Reset != "2024-03-24" || rows[2].Rank != 1 {
		t.Fatalf("second reset=%+v", rows[2])
	}
}

func TestQueryRepository_AgentHistoryKeepsTrailingSamples(t *testing.T) {
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQueryRepository(db)

	r := fx.Reset("2024-03-10", 0)
	site := fx.Site(r.ResetID, "X1-AA-GATE")
	a := fx.Agent(r.ResetID, site.ID, "A", "X1-AA-1")
	other := fx.Agent(r.ResetID, site.ID, "OTHER", "X1-AA-2")
	for _, et := range []int64{0, 15, 30, 83, 90, 97, 100, 105} {
		j := fx.Job(r.ResetID, et*60_000, et)
		fx.AgentLog(j.ID, a.ID, et*10, 1)
		fx.AgentLog(j.ID, other.ID, 1, 1)
	}

	rows, err := repo.AgentHistory(context.Background(), HistoryFilter{
		ResetID: r.ResetID, From: 0, To: 100, Resolution: 15, AgentSymbols: []string{"A"},
	})
	if err != nil {
		t.Fatalf("AgentHistory error: %v", err)
	}
	var got []int64
	for _, row := range rows {
		if row.AgentSymbol != "A" {
			t.Fatalf("unexpected agent %q", row.AgentSymbol)
		}
		got = append(got, row.EventTimeMinutes)
	}
	want := []int64{0, 15, 30, 90, 97, 100}
	if len(got) != len(want) {
		t.Fatalf("event times=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event times=%v, want %v", got, want)
		}
	}
}

func TestQueryRepository_ConstructionHistoryFollowsAgentSites(t *testing.T) {
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQueryRepository(db)

	r := fx.Reset("2024-03-10", 0)
	s1 := fx.Site(r.ResetID, "X1-AA-GATE")
	s2 := fx.Site(r.ResetID, "X1-BB-GATE")
	fx.Agent(r.ResetID, s1.ID, "A", "X1-AA-1")
	fx.Agent(r.ResetID, s2.ID, "B", "X1-BB-1")
	fab := fx.Requirement(r.ResetID, "FAB_MATS", 1600)
	qs := fx.Requirement(r.ResetID, "QUANTUM_STABILIZERS", 1)

	for _, et := range []int64{0, 5, 10} {
		j := fx.Job(r.ResetID, et*60_000, et)
		fx.SiteLog(j.ID, s1.ID, false, map[int64]int64{fab.ID: et * 2, qs.ID: 1})
		fx.SiteLog(j.ID, s2.ID, false, map[int64]int64{fab.ID: et * 3, qs.ID: 1})
	}

	rows, err := repo.ConstructionHistory(context.Background(), HistoryFilter{
		ResetID: r.ResetID, From: 0, To: 10, Resolution: 5, AgentSymbols: []string{"A"},
	})
	if err != nil {
		t.Fatalf("ConstructionHistory error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%+v", rows)
	}
	for i, row := range rows {
		if row.JumpGateWaypointSymbol != "X1-AA-GATE" || row.TradeSymbol != "FAB_MATS" {
			t.Fatalf("row=%+v", row)
		}
		if row.Fulfilled != int64(i)*10 {
			t.Fatalf("fulfilled[%d]=%d", i, row.Fulfilled)
		}
	}
}

func TestQueryRepository_DeliveryAndCompletionEvents(t *testing.T) {
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewQueryRepository(db)
	ctx := context.Background()

	r := fx.Reset("2024-03-10", 0)
	site := fx.Site(r.ResetID, "X1-AA-GATE")
	idle := fx.Site(r.ResetID, "X1-BB-GATE")
	fab := fx.Requirement(r.ResetID, "FAB_MATS", 1600)

	j1 := fx.Job(r.ResetID, 60_000, 1)
	fx.SiteLog(j1.ID, site.ID, false, map[int64]int64{fab.ID: 0})
	fx.SiteLog(j1.ID, idle.ID, false, map[int64]int64{fab.ID: 0})
	j2 := fx.Job(r.ResetID, 120_000, 2)
	fx.SiteLog(j2.ID, site.ID, false, map[int64]int64{fab.ID: 0})
	fx.SiteLog(j2.ID, idle.ID, false, map[int64]int64{fab.ID: 0})
	j3 := fx.Job(r.ResetID, 180_000, 3)
	fx.SiteLog(j3.ID, site.ID, false, map[int64]int64{fab.ID: 200})
	fx.SiteLog(j3.ID, idle.ID, false, map[int64]int64{fab.ID: 0})
	j4 := fx.Job(r.ResetID, 240_000, 4)
	fx.SiteLog(j4.ID, site.ID, true, map[int64]int64{fab.ID: 1600})
	fx.SiteLog(j4.ID, idle.ID, false, map[int64]int64{fab.ID: 0})
	j5 := fx.Job(r.ResetID, 300_000, 5)
	fx.SiteLog(j5.ID, site.ID, true, map[int64]int64{fab.ID: 1600})
	fx.SiteLog(j5.ID, idle.ID, false, map[int64]int64{fab.ID: 0})

	first, err := repo.FirstDeliveryEvents(ctx, r.ResetID)
	if err != nil {
		t.Fatalf("FirstDeliveryEvents error: %v", err)
	}
	if len(first) != 1 || first[0].ConstructionSiteID != site.ID || first[0].JobID != j3.ID || first[0].QueryTime != 180_000 {
		t.Fatalf("first=%+v", first)
	}

	done, err := repo.CompletionEvents(ctx, 0)
	if err != nil {
		t.Fatalf("CompletionEvents error: %v", err)
	}
	if len(done) != 1 || done[0].ConstructionSiteID != site.ID || done[0].QueryTime != 240_000 {
		t.Fatalf("completion=%+v", done)
	}

	progress, err := repo.MostRecentProgress(ctx, r.ResetID)
	if err != nil {
		t.Fatalf("MostRecentProgress error: %v", err)
	}
	if len(progress) != 2 || !progress[0].IsJumpGateComplete || progress[0].Fulfilled != 1600 || progress[0].TsLatestEntryOfReset != 300_000 {
		t.Fatalf("progress=%+v", progress)
	}
	if progress[1].JumpGateWaypointSymbol != "X1-BB-GATE" || progress[1].IsJumpGateComplete {
		t.Fatalf("progress[1]=%+v", progress[1])
	}
}
