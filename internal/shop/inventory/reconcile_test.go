package inventory

import (
	"reflect"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAdd, false},
		{"add", ModeAdd, false},
		{"update", ModeUpdate, false},
		{"replace", ModeReplace, false},
		{"edit", "", true},
		{"ADD", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeMergesDuplicates(t *testing.T) {
	// Two lines for the same part must collapse into one summed quantity,
	// never two independent deltas.
	got, err := Normalize([]Line{
		{PartID: "engine-oil", Quantity: 3},
		{PartID: "brake-pad", Quantity: 1},
		{PartID: "engine-oil", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := map[string]int{"engine-oil": 5, "brake-pad": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalizeRejectsBadLines(t *testing.T) {
	if _, err := Normalize([]Line{{PartID: "p1", Quantity: 0}}); err == nil {
		t.Error("expected error for zero quantity")
	}
	if _, err := Normalize([]Line{{PartID: "p1", Quantity: -2}}); err == nil {
		t.Error("expected error for negative quantity")
	}
	if _, err := Normalize([]Line{{PartID: "", Quantity: 1}}); err == nil {
		t.Error("expected error for missing part id")
	}
}

func TestNormalizeEmpty(t *testing.T) {
	got, err := Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize(nil): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Normalize(nil) = %v, want empty map", got)
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		old       map[string]int
		incoming  map[string]int
		mode      Mode
		wantDelta map[string]int
		wantNext  map[string]int
	}{
		{
			name:      "create as replace against empty old",
			old:       nil,
			incoming:  map[string]int{"engine-oil": 3},
			mode:      ModeReplace,
			wantDelta: map[string]int{"engine-oil": 3},
			wantNext:  map[string]int{"engine-oil": 3},
		},
		{
			name:      "add layers on top of current reservation",
			old:       map[string]int{"engine-oil": 3},
			incoming:  map[string]int{"engine-oil": 2},
			mode:      ModeAdd,
			wantDelta: map[string]int{"engine-oil": 2},
			wantNext:  map[string]int{"engine-oil": 5},
		},
		{
			name:      "add carries untouched parts unchanged",
			old:       map[string]int{"engine-oil": 3, "brake-fluid": 4},
			incoming:  map[string]int{"engine-oil": 2},
			mode:      ModeAdd,
			wantDelta: map[string]int{"engine-oil": 2},
			wantNext:  map[string]int{"engine-oil": 5, "brake-fluid": 4},
		},
		{
			name:      "add with empty incoming is a no-op",
			old:       map[string]int{"engine-oil": 3},
			incoming:  map[string]int{},
			mode:      ModeAdd,
			wantDelta: map[string]int{},
			wantNext:  map[string]int{"engine-oil": 3},
		},
		{
			name:      "update sets absolute quantity",
			old:       map[string]int{"engine-oil": 5},
			incoming:  map[string]int{"engine-oil": 10},
			mode:      ModeUpdate,
			wantDelta: map[string]int{"engine-oil": 5},
			wantNext:  map[string]int{"engine-oil": 10},
		},
		{
			name:      "update can shrink a reservation",
			old:       map[string]int{"engine-oil": 10},
			incoming:  map[string]int{"engine-oil": 4},
			mode:      ModeUpdate,
			wantDelta: map[string]int{"engine-oil": -6},
			wantNext:  map[string]int{"engine-oil": 4},
		},
		{
			name:      "update leaves omitted parts alone",
			old:       map[string]int{"engine-oil": 5, "brake-fluid": 4},
			incoming:  map[string]int{"engine-oil": 10},
			mode:      ModeUpdate,
			wantDelta: map[string]int{"engine-oil": 5},
			wantNext:  map[string]int{"engine-oil": 10, "brake-fluid": 4},
		},
		{
			name:      "update with same quantity is idempotent",
			old:       map[string]int{"engine-oil": 10},
			incoming:  map[string]int{"engine-oil": 10},
			mode:      ModeUpdate,
			wantDelta: map[string]int{},
			wantNext:  map[string]int{"engine-oil": 10},
		},
		{
			name:      "replace releases parts not re-listed",
			old:       map[string]int{"engine-oil": 3, "brake-fluid": 4},
			incoming:  map[string]int{"engine-oil": 5},
			mode:      ModeReplace,
			wantDelta: map[string]int{"engine-oil": 2, "brake-fluid": -4},
			wantNext:  map[string]int{"engine-oil": 5},
		},
		{
			name:      "replace with empty incoming releases everything",
			old:       map[string]int{"engine-oil": 3, "brake-fluid": 4},
			incoming:  map[string]int{},
			mode:      ModeReplace,
			wantDelta: map[string]int{"engine-oil": -3, "brake-fluid": -4},
			wantNext:  map[string]int{},
		},
		{
			name:      "replace with identical payload is a zero-delta no-op",
			old:       map[string]int{"engine-oil": 3},
			incoming:  map[string]int{"engine-oil": 3},
			mode:      ModeReplace,
			wantDelta: map[string]int{},
			wantNext:  map[string]int{"engine-oil": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, next, err := Reconcile(tt.old, tt.incoming, tt.mode)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if !reflect.DeepEqual(delta, tt.wantDelta) {
				t.Errorf("delta = %v, want %v", delta, tt.wantDelta)
			}
			if !reflect.DeepEqual(next, tt.wantNext) {
				t.Errorf("next = %v, want %v", next, tt.wantNext)
			}
		})
	}
}

func TestReconcileRejectsUnknownMode(t *testing.T) {
	if _, _, err := Reconcile(nil, map[string]int{"p": 1}, Mode("merge")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestReleaseAll(t *testing.T) {
	got := ReleaseAll(map[string]int{"engine-oil": 3, "brake-fluid": 4})
	want := map[string]int{"engine-oil": -3, "brake-fluid": -4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReleaseAll = %v, want %v", got, want)
	}
}

// TestConservationRoundTrip checks that reserving and then fully releasing
// leaves the net delta at zero for every part, whatever sequence of modes
// produced the reservation.
func TestConservationRoundTrip(t *testing.T) {
	reserved := map[string]int{}
	net := map[string]int{}

	apply := func(incoming map[string]int, mode Mode) {
		delta, next, err := Reconcile(reserved, incoming, mode)
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		for p, d := range delta {
			net[p] += d
		}
		reserved = next
	}

	apply(map[string]int{"engine-oil": 3}, ModeReplace)
	apply(map[string]int{"engine-oil": 2, "brake-fluid": 4}, ModeAdd)
	apply(map[string]int{"engine-oil": 10}, ModeUpdate)
	apply(map[string]int{"air-filter": 1}, ModeReplace)

	for p, d := range ReleaseAll(reserved) {
		net[p] += d
	}

	for p, d := range net {
		if d != 0 {
			t.Errorf("part %s: net delta %d after full release, want 0", p, d)
		}
	}

	// The running net must also always equal the reserved total per part.
	if reserved["air-filter"] != 1 {
		t.Errorf("reserved air-filter = %d, want 1", reserved["air-filter"])
	}
}
