package cadence

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want Duration
	}{
		{"", Automatic},
		{"automatic", Automatic},
		{"Auto", Automatic},
		{"forever", Forever},
		{"1.5s", DurationOf(1500 * time.Millisecond)},
		{" 250ms ", DurationOf(250 * time.Millisecond)},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseDuration("soon"); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestDurationKinds(t *testing.T) {
	var zero Duration
	if !zero.IsAutomatic() || zero.HasTimeSpan() || zero.IsForever() {
		t.Error("zero Duration should be Automatic")
	}
	d := DurationOf(2 * time.Second)
	if !d.HasTimeSpan() || d.TimeSpan() != 2*time.Second || d.String() != "2s" {
		t.Errorf("DurationOf(2s) = %v", d)
	}
	if Forever.TimeSpan() != 0 || Forever.String() != "forever" {
		t.Error("Forever has a time span")
	}
}

func TestParseRepeatBehavior(t *testing.T) {
	cases := []struct {
		in       string
		count    float64
		duration time.Duration
		forever  bool
	}{
		{"", 1, 0, false},
		{"3x", 3, 0, false},
		{"2.5", 2.5, 0, false},
		{"forever", 0, 0, true},
		{"10s", 0, 10 * time.Second, false},
	}
	for _, tc := range cases {
		r, err := ParseRepeatBehavior(tc.in)
		if err != nil {
			t.Errorf("ParseRepeatBehavior(%q): %v", tc.in, err)
			continue
		}
		if r.Count() != tc.count || r.Duration() != tc.duration || r.IsForever() != tc.forever {
			t.Errorf("ParseRepeatBehavior(%q) = %v", tc.in, r)
		}
	}
	if _, err := ParseRepeatBehavior("often"); err == nil {
		t.Error("expected error for invalid repeat")
	}
}

func TestRepeatBehaviorString(t *testing.T) {
	cases := map[string]RepeatBehavior{
		"1x":      {},
		"2.5x":    RepeatCount(2.5),
		"forever": RepeatForever,
		"3s":      RepeatFor(3 * time.Second),
	}
	for want, r := range cases {
		if r.String() != want {
			t.Errorf("String = %q, want %q", r.String(), want)
		}
	}
}

func TestParseFillBehavior(t *testing.T) {
	for _, f := range []FillBehavior{FillDefault, FillReset, FillOriginalValue} {
		got, err := ParseFillBehavior(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFillBehavior(%q) = %v, %v", f.String(), got, err)
		}
	}
	if got, _ := ParseFillBehavior("HoldEnd"); got != FillDefault {
		t.Errorf("HoldEnd = %v, want default", got)
	}
	if _, err := ParseFillBehavior("keep"); err == nil {
		t.Error("expected error for unknown fill")
	}
}

func TestTimelineGroupAdd(t *testing.T) {
	g := NewTimelineGroup()
	g.Add(leafOf(time.Second), leafOf(time.Second))
	if len(g.Children) != 2 {
		t.Errorf("Children = %d, want 2", len(g.Children))
	}
	if len(childrenOf(g)) != 2 || childrenOf(leafOf(time.Second)) != nil {
		t.Error("childrenOf returned the wrong children")
	}
}
