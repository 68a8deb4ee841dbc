package component

import "testing"

func TestNewDefaults(t *testing.T) {
	d := New("a")
	if d.ID != "a" {
		t.Errorf("ID = %q, want %q", d.ID, "a")
	}
	if d.Priority != DefaultPriority {
		t.Errorf("Priority = %d, want %d", d.Priority, DefaultPriority)
	}
	if len(d.After) != 0 || len(d.Before) != 0 {
		t.Errorf("relations should be empty, got after=%v before=%v", d.After, d.Before)
	}
}

func TestNewOptions(t *testing.T) {
	d := New("a",
		WithPriority(-5),
		WithAfter("b", "c"),
		WithBefore("d"),
		WithVersion("v1.2.0"),
		WithRequires(Requirement{ID: "b", Constraint: ">=v1.0.0"}),
		WithSource("manual"),
	)
	if d.Priority != -5 {
		t.Errorf("Priority = %d, want -5", d.Priority)
	}
	if len(d.After) != 2 || d.After[1] != "c" {
		t.Errorf("After = %v, want [b c]", d.After)
	}
	if len(d.Before) != 1 || d.Before[0] != "d" {
		t.Errorf("Before = %v, want [d]", d.Before)
	}
	if d.Version != "v1.2.0" || d.Source != "manual" || len(d.Requires) != 1 {
		t.Errorf("unexpected declaration %+v", d)
	}
}

func TestCloneIsolation(t *testing.T) {
	orig := New("a", WithAfter("b"))
	c := orig.Clone()
	c.After[0] = "mutated"
	if orig.After[0] != "b" {
		t.Errorf("Clone shares After slice: orig.After = %v", orig.After)
	}
}

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		wantPrio int
		wantAft  int
	}{
		{"priority shorthand", Priority(7), 7, 0},
		{"full declaration", New("ignored", WithPriority(3), WithAfter("x")), 3, 1},
		{"nil entry", nil, DefaultPriority, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromEntry("id", tt.entry)
			if d.ID != "id" {
				t.Errorf("ID = %q, want %q", d.ID, "id")
			}
			if d.Priority != tt.wantPrio {
				t.Errorf("Priority = %d, want %d", d.Priority, tt.wantPrio)
			}
			if len(d.After) != tt.wantAft {
				t.Errorf("len(After) = %d, want %d", len(d.After), tt.wantAft)
			}
		})
	}
}
