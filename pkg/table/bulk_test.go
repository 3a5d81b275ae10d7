package table

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Sternrassler/artic-table/internal/testutil"
	"github.com/Sternrassler/artic-table/pkg/artwork"
	"github.com/Sternrassler/artic-table/pkg/pagination"
)

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestSelectFirstN(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		n          int
		wantIDs    []int
		wantCalls  []int
		wantReason pagination.StopReason
	}{
		{
			name:       "within first page",
			total:      100,
			n:          5,
			wantIDs:    seq(1, 5),
			wantCalls:  []int{1},
			wantReason: pagination.StopComplete,
		},
		{
			name:       "exactly one page",
			total:      100,
			n:          12,
			wantIDs:    seq(1, 12),
			wantCalls:  []int{1},
			wantReason: pagination.StopComplete,
		},
		{
			name:       "spans two pages",
			total:      100,
			n:          15,
			wantIDs:    seq(1, 15),
			wantCalls:  []int{1, 2},
			wantReason: pagination.StopComplete,
		},
		{
			name:       "more than catalog",
			total:      30,
			n:          100,
			wantIDs:    seq(1, 30),
			wantCalls:  []int{1, 2, 3},
			wantReason: pagination.StopExhausted,
		},
		{
			name:       "empty catalog",
			total:      0,
			n:          3,
			wantIDs:    []int{},
			wantCalls:  []int{1},
			wantReason: pagination.StopExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource(tt.total, 12)
			c := newTestController(t, src)

			r, err := c.CollectFirstN(context.Background(), tt.n)
			if err != nil {
				t.Fatalf("CollectFirstN() failed: %v", err)
			}
			if r.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", r.Reason, tt.wantReason)
			}
			if !reflect.DeepEqual(src.calls, tt.wantCalls) {
				t.Errorf("fetched pages = %v, want %v", src.calls, tt.wantCalls)
			}
			if c.SelectedCount() != 0 {
				t.Error("CollectFirstN must not change the selection")
			}

			c.ApplyBulk(r)
			if got := c.SelectedIDs(); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("SelectedIDs() = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestSelectFirstN_NonPositiveIsNoop(t *testing.T) {
	src := newFakeSource(100, 12)
	c := newTestController(t, src)
	c.Toggle(42)

	for _, n := range []int{0, -1} {
		ids, err := c.SelectFirstN(context.Background(), n)
		if err != nil || ids != nil {
			t.Errorf("SelectFirstN(%d) = %v, %v; want nil, nil", n, ids, err)
		}
	}
	if len(src.calls) != 0 {
		t.Errorf("fetched pages = %v, want none", src.calls)
	}
	if got := c.SelectedIDs(); !reflect.DeepEqual(got, []int{42}) {
		t.Errorf("SelectedIDs() = %v, want [42]", got)
	}
}

func TestSelectFirstN_ReplacesSelection(t *testing.T) {
	c := newTestController(t, newFakeSource(100, 12))
	ctx := context.Background()

	if _, err := c.LoadPage(ctx, 5); err != nil {
		t.Fatal(err)
	}
	c.Toggle(50)
	c.Toggle(55)

	ids, err := c.SelectFirstN(ctx, 3)
	if err != nil {
		t.Fatalf("SelectFirstN() failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{1, 2, 3}) {
		t.Errorf("SelectFirstN() = %v, want [1 2 3]", ids)
	}
	if got := c.SelectedIDs(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("SelectedIDs() = %v, want [1 2 3]; earlier picks must be dropped", got)
	}
	if len(c.Visible()) != 0 {
		t.Errorf("Visible() on page 5 = %v, want none", idsOf(c.Visible()))
	}
	if c.Page().CurrentPage != 5 {
		t.Errorf("displayed page changed to %d", c.Page().CurrentPage)
	}
}

func TestSelectFirstN_PartialFailureKeepsAccumulated(t *testing.T) {
	src := newFakeSource(100, 12)
	src.failAt[3] = true
	c := newTestController(t, src)
	c.Toggle(99)

	ids, err := c.SelectFirstN(context.Background(), 40)
	if !errors.Is(err, errInjected) {
		t.Fatalf("err = %v, want injected failure", err)
	}
	if !reflect.DeepEqual(ids, seq(1, 24)) {
		t.Errorf("SelectFirstN() = %v, want 1..24", ids)
	}
	if got := c.SelectedIDs(); !reflect.DeepEqual(got, seq(1, 24)) {
		t.Errorf("SelectedIDs() = %v, want 1..24", got)
	}
	if !reflect.DeepEqual(src.calls, []int{1, 2, 3}) {
		t.Errorf("fetched pages = %v, want [1 2 3]", src.calls)
	}
}

func TestSelectFirstN_FirstPageFailure(t *testing.T) {
	src := newFakeSource(100, 12)
	src.failAt[1] = true
	c := newTestController(t, src)
	c.Toggle(7)

	ids, err := c.SelectFirstN(context.Background(), 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ids) != 0 || c.SelectedCount() != 0 {
		t.Errorf("selection = %v, want empty replacement", c.SelectedIDs())
	}
}

func TestSelectFirstN_Cancelled(t *testing.T) {
	c := newTestController(t, newFakeSource(100, 12))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := c.CollectFirstN(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if r == nil || r.Reason != pagination.StopCancelled {
		t.Errorf("result = %+v, want cancelled", r)
	}
}

func TestSelectFirstN_CachesRecords(t *testing.T) {
	c := newTestController(t, newFakeSource(100, 12))

	if _, err := c.SelectFirstN(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	got := c.SelectedRecords()
	if len(got) != 20 {
		t.Fatalf("SelectedRecords() = %d records, want 20", len(got))
	}
	if got[19].Title != "Artwork 20" {
		t.Errorf("record 20 title = %q", got[19].Title)
	}
}

// dupSource repeats the last record of page 1 at the start of page 2.
type dupSource struct{ *fakeSource }

func (d dupSource) FetchPage(ctx context.Context, page int) (*artwork.Page, error) {
	p, err := d.fakeSource.FetchPage(ctx, page)
	if err != nil || page != 2 {
		return p, err
	}
	p.Records = append([]artwork.Record{testutil.Record(12)}, p.Records...)
	return p, nil
}

func TestSelectFirstN_SkipsDuplicates(t *testing.T) {
	c := newTestController(t, dupSource{newFakeSource(100, 12)})

	ids, err := c.SelectFirstN(context.Background(), 14)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, seq(1, 14)) {
		t.Errorf("SelectFirstN() = %v, want 1..14", ids)
	}
	if c.SelectedCount() != 14 {
		t.Errorf("SelectedCount() = %d, want 14", c.SelectedCount())
	}
}

// oddIDSource serves one page whose ids include values that are not valid
// catalog ids or that do not fit in 32 bits.
type oddIDSource struct{ big int }

func (o oddIDSource) FetchPage(ctx context.Context, page int) (*artwork.Page, error) {
	return &artwork.Page{
		Pagination: artwork.Pagination{Total: 4, Limit: 4, TotalPages: 1, CurrentPage: 1},
		Records: []artwork.Record{
			testutil.Record(-1),
			testutil.Record(2),
			testutil.Record(o.big),
			testutil.Record(0),
		},
	}, nil
}

func TestSelectFirstN_ReturnedIDsMatchSelection(t *testing.T) {
	shift := 33
	big := 1 << shift
	c := newTestController(t, oddIDSource{big: big})

	ids, err := c.SelectFirstN(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, big}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("SelectFirstN() = %v, want %v", ids, want)
	}
	if got := c.SelectedIDs(); !reflect.DeepEqual(got, ids) {
		t.Errorf("SelectedIDs() = %v, want the returned %v", got, ids)
	}
}

func TestApplyBulk_Nil(t *testing.T) {
	c := newTestController(t, newFakeSource(10, 12))
	c.Toggle(1)
	c.ApplyBulk(nil)
	if c.SelectedCount() != 1 {
		t.Errorf("ApplyBulk(nil) changed selection: %v", c.SelectedIDs())
	}
}
