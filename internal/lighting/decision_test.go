package lighting

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		lux      int
		occupied bool
		want     int
	}{
		{
			name:     "unoccupied is always off",
			lux:      0,
			occupied: false,
			want:     0,
		},
		{
			name:     "unoccupied overrides dark room",
			lux:      50,
			occupied: false,
			want:     0,
		},
		{
			name:     "unoccupied overrides bright room",
			lux:      900,
			occupied: false,
			want:     0,
		},
		{
			name:     "very bright ambient",
			lux:      800,
			occupied: true,
			want:     10,
		},
		{
			name:     "boundary 600 inclusive",
			lux:      600,
			occupied: true,
			want:     10,
		},
		{
			name:     "just below 600",
			lux:      599,
			occupied: true,
			want:     40,
		},
		{
			name:     "boundary 400 inclusive",
			lux:      400,
			occupied: true,
			want:     40,
		},
		{
			name:     "just below 400",
			lux:      399,
			occupied: true,
			want:     70,
		},
		{
			name:     "boundary 200 inclusive",
			lux:      200,
			occupied: true,
			want:     70,
		},
		{
			name:     "just below 200",
			lux:      199,
			occupied: true,
			want:     100,
		},
		{
			name:     "dark room",
			lux:      0,
			occupied: true,
			want:     100,
		},
		{
			name:     "negative lux falls through to full",
			lux:      -10,
			occupied: true,
			want:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.lux, tt.occupied)
			if got != tt.want {
				t.Errorf("Decide(%d, %v) = %d, want %d", tt.lux, tt.occupied, got, tt.want)
			}
		})
	}
}

// Every possible output must be a valid brightness level.
func TestDecide_OutputBounds(t *testing.T) {
	for lux := -100; lux <= 1200; lux++ {
		for _, occupied := range []bool{true, false} {
			level := Decide(lux, occupied)
			if level < 0 || level > MaxLevel {
				t.Fatalf("Decide(%d, %v) = %d, outside [0,%d]", lux, occupied, level, MaxLevel)
			}
		}
	}
}

// The band table must be ordered brightest-first, since evaluation is
// top-down and the first match wins.
func TestDecisionTable_Ordering(t *testing.T) {
	table := DecisionTable()
	if len(table) == 0 {
		t.Fatal("decision table is empty")
	}

	for i := 1; i < len(table); i++ {
		if table[i].Threshold >= table[i-1].Threshold {
			t.Errorf("band %d threshold %d not below band %d threshold %d",
				i, table[i].Threshold, i-1, table[i-1].Threshold)
		}
	}
}

func TestDecisionTable_CopyIsolation(t *testing.T) {
	table := DecisionTable()
	table[0].Level = 99

	if Decide(table[0].Threshold, true) == 99 {
		t.Error("mutating the returned table affected Decide")
	}
}

func TestReading_Occupied(t *testing.T) {
	tests := []struct {
		people int
		want   bool
	}{
		{0, false},
		{1, true},
		{5, true},
	}

	for _, tt := range tests {
		r := Reading{People: tt.people}
		if r.Occupied() != tt.want {
			t.Errorf("Reading{People: %d}.Occupied() = %v, want %v", tt.people, r.Occupied(), tt.want)
		}
	}
}
