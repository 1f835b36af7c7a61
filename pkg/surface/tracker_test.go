package surface

import (
	"sync"
	"testing"
)

func TestTracker_Apply(t *testing.T) {
	tests := []struct {
		name     string
		initial  Size
		box      Rect
		wantKind Kind
		wantSize Size
	}{
		{
			name:     "grows both axes by margin",
			initial:  Size{2000, 2000},
			box:      Rect{MinX: 100, MinY: 100, MaxX: 2500, MaxY: 1800},
			wantKind: Grow,
			wantSize: Size{3500, 2800},
		},
		{
			name:     "content well inside",
			initial:  Size{5000, 5000},
			box:      Rect{MinX: 10, MinY: 10, MaxX: 200, MaxY: 300},
			wantKind: NoChange,
			wantSize: Size{5000, 5000},
		},
		{
			name:     "grows one axis only",
			initial:  Size{5000, 5000},
			box:      Rect{MinX: 10, MinY: 10, MaxX: 4500, MaxY: 300},
			wantKind: Grow,
			wantSize: Size{5500, 5000},
		},
		{
			name:     "zero width box",
			initial:  Size{2000, 2000},
			box:      Rect{MinX: 9000, MinY: 0, MaxX: 9000, MaxY: 9000},
			wantKind: NoChange,
			wantSize: Size{2000, 2000},
		},
		{
			name:     "empty box",
			initial:  Size{2000, 2000},
			box:      Rect{},
			wantKind: NoChange,
			wantSize: Size{2000, 2000},
		},
		{
			name:     "width over max",
			initial:  Size{90000, 2000},
			box:      Rect{MinX: 0, MinY: 0, MaxX: 99500, MaxY: 1800},
			wantKind: AtLimit,
			wantSize: Size{90000, 2000},
		},
		{
			name:     "height over max rejects width growth too",
			initial:  Size{2000, 90000},
			box:      Rect{MinX: 0, MinY: 0, MaxX: 5000, MaxY: 99500},
			wantKind: AtLimit,
			wantSize: Size{2000, 90000},
		},
		{
			name:     "exactly at max is allowed",
			initial:  Size{2000, 2000},
			box:      Rect{MinX: 0, MinY: 0, MaxX: 99000, MaxY: 10},
			wantKind: Grow,
			wantSize: Size{100000, 2000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(tt.initial, 1000, 100000)
			d := tr.Apply(tt.box)

			if d.Kind != tt.wantKind {
				t.Errorf("Apply() kind = %s, want %s", d.Kind, tt.wantKind)
			}
			if d.Size != tt.wantSize {
				t.Errorf("Apply() size = %v, want %v", d.Size, tt.wantSize)
			}
			if got := tr.Size(); got != tt.wantSize {
				t.Errorf("Size() = %v, want %v", got, tt.wantSize)
			}
		})
	}
}

func TestTracker_AtLimitReportsRequested(t *testing.T) {
	tr := NewTracker(Size{2000, 2000}, 1000, 10000)
	d := tr.Apply(Rect{MaxX: 12000, MaxY: 500, MinX: 1, MinY: 1})

	if d.Kind != AtLimit {
		t.Fatalf("kind = %s, want at_limit", d.Kind)
	}
	if d.Requested != (Size{13000, 2000}) {
		t.Errorf("Requested = %v, want 13000x2000", d.Requested)
	}
}

func TestTracker_Monotonic(t *testing.T) {
	tr := NewTracker(Size{1000, 1000}, 100, 0)
	boxes := []Rect{
		{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 500},
		{MinX: 0, MinY: 0, MaxX: 500, MaxY: 500},
		{MinX: 0, MinY: 0, MaxX: 100, MaxY: 3000},
	}

	prev := tr.Size()
	for _, b := range boxes {
		tr.Apply(b)
		cur := tr.Size()
		if cur.W < prev.W || cur.H < prev.H {
			t.Fatalf("size shrank from %v to %v", prev, cur)
		}
		prev = cur
	}
	if prev != (Size{2100, 3100}) {
		t.Errorf("final size = %v, want 2100x3100", prev)
	}
}

func TestTracker_Defaults(t *testing.T) {
	tr := NewTracker(Size{1, 1}, 0, -5)
	if tr.Margin() != DefaultMargin {
		t.Errorf("Margin() = %v, want %v", tr.Margin(), DefaultMargin)
	}
	if tr.Max() != DefaultMaxExtent {
		t.Errorf("Max() = %v, want %v", tr.Max(), DefaultMaxExtent)
	}
}

func TestTracker_Restore(t *testing.T) {
	tr := NewTracker(Size{50000, 50000}, 1000, 100000)

	if got := tr.Restore(Size{60000, 40000}); got != (Size{60000, 50000}) {
		t.Errorf("Restore() = %v, want 60000x50000", got)
	}
	if got := tr.Restore(Size{200000, 0}); got != (Size{100000, 50000}) {
		t.Errorf("Restore() = %v, want clamped 100000x50000", got)
	}
}

func TestTracker_ConcurrentApply(t *testing.T) {
	tr := NewTracker(Size{1000, 1000}, 10, 100000)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Apply(Rect{MaxX: float64(i * 100), MaxY: float64(i * 50), MinX: 0, MinY: 0})
			s := tr.Size()
			if s.W < 1000 || s.H < 1000 {
				t.Errorf("observed shrunk size %v", s)
			}
		}(i)
	}
	wg.Wait()

	if got := tr.Size(); got != (Size{5010, 2510}) {
		t.Errorf("Size() = %v, want 5010x2510", got)
	}
}

func TestRect_Union(t *testing.T) {
	a := Rect{MinX: 10, MinY: 20, MaxX: 30, MaxY: 40}
	b := Rect{MinX: 0, MinY: 25, MaxX: 35, MaxY: 30}

	if got := a.Union(b); got != (Rect{0, 20, 35, 40}) {
		t.Errorf("Union() = %+v", got)
	}
	if got := a.Union(Rect{}); got != a {
		t.Errorf("Union(empty) = %+v, want %+v", got, a)
	}
	if got := (Rect{}).Union(b); got != b {
		t.Errorf("empty.Union() = %+v, want %+v", got, b)
	}
}
