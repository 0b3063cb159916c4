package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yuqie6/st-leaderboard/internal/schema"
	"github.com/yuqie6/st-leaderboard/internal/testutil"
)

func TestResetRepository_LoadOrCreateIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewResetRepository(db)
	ctx := context.Background()

	first, err := repo.LoadOrCreate(ctx, "2024-03-10", 1_000)
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	second, err := repo.LoadOrCreate(ctx, "2024-03-10", 9_000)
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if first.ResetID != second.ResetID {
		t.Fatalf("reset id changed: %d vs %d", first.ResetID, second.ResetID)
	}
	if second.FirstTs != 1_000 {
		t.Fatalf("first_ts overwritten: %d", second.FirstTs)
	}
	if !second.IsOngoing || second.LatestTs != second.FirstTs {
		t.Fatalf("derived fields=%+v", second)
	}
}

func TestResetRepository_LoadOrCreateConcurrent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewResetRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := repo.LoadOrCreate(ctx, "2024-03-24", int64(i))
			errs[i] = err
			if err == nil {
				ids[i] = info.ResetID
			}
		}()
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("LoadOrCreate[%d] error: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("ids differ: %v", ids)
		}
	}
	var n int64
	db.Model(&schema.Reset{}).Count(&n)
	if n != 1 {
		t.Fatalf("reset rows=%d, want 1", n)
	}
}

func TestResetRepository_ListDerivesLatestAndOngoing(t *testing.T) {
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewResetRepository(db)
	ctx := context.Background()

	older := fx.Reset("2024-03-10", 0)
	newer := fx.Reset("2024-03-24", 100_000)
	fx.Job(older.ResetID, 60_000, 1)
	fx.Job(older.ResetID, 180_000, 3)

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len=%d", len(list))
	}
	if list[0].Date != "2024-03-10" || list[0].LatestTs != 180_000 || list[0].IsOngoing {
		t.Fatalf("older=%+v", list[0])
	}
	if list[0].DurationMinutes() != 3 {
		t.Fatalf("duration=%d", list[0].DurationMinutes())
	}
	if list[1].ResetID != newer.ResetID || list[1].LatestTs != 100_000 || !list[1].IsOngoing {
		t.Fatalf("newer=%+v", list[1])
	}

	got, err := repo.GetByDate(ctx, "2024-03-10")
	if err != nil {
		t.Fatalf("GetByDate error: %v", err)
	}
	if got.IsOngoing {
		t.Fatalf("older reset reported as ongoing")
	}
}

func TestResetRepository_GetByDateNotFound(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewResetRepository(db)

	_, err := repo.GetByDate(context.Background(), "1999-01-01")
	if !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("err=%v, want ErrResetNotFound", err)
	}
}

func TestParseResetDate(t *testing.T) {
	if got, err := ParseResetDate("2024-03-10"); err != nil || got != "2024-03-10" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	for _, bad := range []string{"", "2024-3-10", "2024-02-30", "yesterday"} {
		if _, err := ParseResetDate(bad); err == nil {
			t.Fatalf("ParseResetDate(%q) expected error", bad)
		}
	}
}
