package geo

import (
	"math"
	"testing"
	"time"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64
		tol  float64
	}{
		{name: "same point", a: Coordinate{-6.259427, 53.344496}, b: Coordinate{-6.259427, 53.344496}, want: 0, tol: 0},
		{name: "one degree latitude", a: Coordinate{0, 0}, b: Coordinate{0, 1}, want: 111195, tol: 1},
		{name: "one degree longitude at equator", a: Coordinate{0, 0}, b: Coordinate{1, 0}, want: 111195, tol: 1},
		// Vancouver to Seattle, ~195 km.
		{name: "city pair", a: Coordinate{-123.1207, 49.2827}, b: Coordinate{-122.3321, 47.6062}, want: 195500, tol: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance(%v, %v) = %.1f, want %.1f ± %.1f", tt.a, tt.b, got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]Coordinate{
		{{0, 0}, {0, 1}},
		{{-123.1, 49.2}, {-123.0, 49.3}},
		{{179.9, -10}, {-179.9, 10}},
	}
	for _, p := range pairs {
		ab, ba := Distance(p[0], p[1]), Distance(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Distance not symmetric for %v: %v vs %v", p, ab, ba)
		}
	}
}

func TestSegmentOneDegreeAtEquator(t *testing.T) {
	got := Segment(Path{{0, 0}, {0, 1}}, 111000, time.Second)
	if len(got) != 1 {
		t.Fatalf("got %d steps, want 1: %v", len(got), got)
	}
	if got[0] != (Coordinate{0, 0}) {
		t.Errorf("step = %v, want [0 0]", got[0])
	}
}

func TestSegmentLengthIsSumOfFloors(t *testing.T) {
	path := Path{
		{-123.1207, 49.2827},
		{-123.1100, 49.2850},
		{-123.1100, 49.2850}, // duplicate waypoint
		{-123.1000, 49.2900},
		{-123.1207, 49.2827},
	}
	speed, interval := 25.0, 2*time.Second

	want := 0
	for i := 0; i+1 < len(path); i++ {
		want += int(math.Floor(Distance(path[i], path[i+1]) / (speed * interval.Seconds())))
	}

	got := Segment(path, speed, interval)
	if len(got) != want {
		t.Errorf("len(Segment) = %d, want %d", len(got), want)
	}
}

func TestSegmentSkipsShortSegments(t *testing.T) {
	// ~11 m apart, far less than 25 m/s * 2 s.
	path := Path{{0, 0}, {0, 0.0001}}
	if got := Segment(path, 25, 2*time.Second); len(got) != 0 {
		t.Errorf("short segment produced %d steps, want 0", len(got))
	}
}

func TestSegmentAllDegenerateIsEmpty(t *testing.T) {
	path := Path{{10, 10}, {10, 10}, {10, 10.00001}}
	if got := Segment(path, 25, 2*time.Second); len(got) != 0 {
		t.Errorf("got %d steps, want 0", len(got))
	}
}

func TestSegmentNonPositiveStep(t *testing.T) {
	path := Path{{0, 0}, {0, 1}}
	if got := Segment(path, 0, time.Second); got != nil {
		t.Errorf("speed 0: got %v, want nil", got)
	}
	if got := Segment(path, 25, 0); got != nil {
		t.Errorf("interval 0: got %v, want nil", got)
	}
}

func TestSegmentNeverEmitsFinalWaypoint(t *testing.T) {
	path := Path{{0, 0}, {0, 0.01}, {0.01, 0.01}}
	last := path[len(path)-1]
	for _, s := range Segment(path, 10, time.Second) {
		if s == last {
			t.Fatalf("final waypoint %v emitted as a step", last)
		}
	}

	closed := ClosePath(path)
	steps := Segment(closed, 10, time.Second)
	found := false
	for _, s := range steps {
		if s == last {
			found = true
		}
	}
	if !found {
		t.Errorf("closed path should pass through %v", last)
	}
}

func TestSegmentInterpolationIsLinear(t *testing.T) {
	a, b := Coordinate{0, 0}, Coordinate{0.02, 0.01}
	steps := Segment(Path{a, b}, 100, time.Second)
	n := len(steps)
	if n < 2 {
		t.Fatalf("want several steps, got %d", n)
	}
	if steps[0] != a {
		t.Errorf("first step = %v, want %v", steps[0], a)
	}
	for j, s := range steps {
		f := float64(j) / float64(n)
		want := Coordinate{a.Lng() + (b.Lng()-a.Lng())*f, a.Lat() + (b.Lat()-a.Lat())*f}
		if math.Abs(s.Lng()-want.Lng()) > 1e-12 || math.Abs(s.Lat()-want.Lat()) > 1e-12 {
			t.Errorf("step %d = %v, want %v", j, s, want)
		}
		if s == b {
			t.Errorf("step %d equals the segment end", j)
		}
	}
}

func TestClosePath(t *testing.T) {
	open := Path{{0, 0}, {1, 1}}
	closed := ClosePath(open)
	if len(closed) != 3 || closed[2] != open[0] {
		t.Errorf("ClosePath(%v) = %v", open, closed)
	}
	if len(open) != 2 {
		t.Error("ClosePath modified its input")
	}

	already := Path{{0, 0}, {1, 1}, {0, 0}}
	if got := ClosePath(already); len(got) != 3 {
		t.Errorf("already closed path grew to %d points", len(got))
	}
	if got := ClosePath(Path{{5, 5}}); len(got) != 1 {
		t.Errorf("single point path grew to %d points", len(got))
	}
}
