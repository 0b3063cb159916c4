package pagination

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func fakePages(total int) FetchFunc[int] {
	return func(ctx context.Context, page, limit int) (Page[int], error) {
		// 让靠前的页更晚返回，验证拼接顺序
		time.Sleep(time.Duration(10-page) * time.Millisecond)
		var items []int
		for i := (page - 1) * limit; i < page*limit && i < total; i++ {
			items = append(items, i)
		}
		return Page[int]{Items: items, Total: total, Limit: limit}, nil
	}
}

func TestPaginate_OrderedAcrossPages(t *testing.T) {
	got, err := Paginate(context.Background(), Options{PageSize: 20}, fakePages(47))
	if err != nil {
		t.Fatalf("Paginate error: %v", err)
	}
	if len(got) != 47 {
		t.Fatalf("len=%d, want 47", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d]=%d", i, v)
		}
	}
}

func TestPaginate_SinglePage(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, page, limit int) (Page[string], error) {
		calls.Add(1)
		return Page[string]{Items: []string{"a", "b"}, Total: 2, Limit: limit}, nil
	}
	got, err := Paginate(context.Background(), Options{}, fetch)
	if err != nil {
		t.Fatalf("Paginate error: %v", err)
	}
	if len(got) != 2 || calls.Load() != 1 {
		t.Fatalf("got=%v calls=%d", got, calls.Load())
	}
}

func TestPaginate_EmptyTotal(t *testing.T) {
	fetch := func(ctx context.Context, page, limit int) (Page[int], error) {
		return Page[int]{Total: 0, Limit: limit}, nil
	}
	got, err := Paginate(context.Background(), Options{}, fetch)
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestPaginate_FailsWhenAnyPageFails(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(ctx context.Context, page, limit int) (Page[int], error) {
		if page == 2 {
			return Page[int]{}, boom
		}
		return Page[int]{Items: []int{page}, Total: 60, Limit: 20}, nil
	}
	_, err := Paginate(context.Background(), Options{Concurrency: 2}, fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
}

func TestPaginate_UsesServerReportedLimit(t *testing.T) {
	const serverLimit, total = 10, 25
	var mismatched atomic.Int32
	fetch := func(ctx context.Context, page, limit int) (Page[int], error) {
		if page > 1 && limit != serverLimit {
			mismatched.Add(1)
		}
		// 服务端按自己的 limit 切页，忽略请求值
		var items []int
		for i := (page - 1) * serverLimit; i < page*serverLimit && i < total; i++ {
			items = append(items, i)
		}
		return Page[int]{Items: items, Total: total, Limit: serverLimit}, nil
	}
	got, err := Paginate(context.Background(), Options{PageSize: 20}, fetch)
	if err != nil {
		t.Fatalf("Paginate error: %v", err)
	}
	if mismatched.Load() != 0 {
		t.Fatalf("later pages requested with limit != %d", serverLimit)
	}
	if len(got) != total {
		t.Fatalf("len=%d, want %d", len(got), total)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d]=%d", i, v)
		}
	}
}
