package wind

import "testing"

func reading(speed, gust, direction float64) Reading {
	return Reading{Speed: &speed, Gust: &gust, Direction: &direction}
}

func TestIsEpic(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		r    Reading
		want bool
	}{
		{"inside band", reading(20, 22, 100), true},
		{"min speed inclusive", reading(17, 18, 68), true},
		{"max direction inclusive", reading(24, 25, 146), true},
		{"max speed exclusive", reading(25, 26, 100), false},
		{"too light", reading(16.9, 18, 100), false},
		{"wrong direction", reading(20, 22, 180), false},
		{"below min direction", reading(20, 22, 67.9), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := th.IsEpic(tc.r); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if th.IsEpic(Reading{}) {
		t.Fatal("expected false for missing fields")
	}
}

func TestIsDangerous(t *testing.T) {
	th := DefaultThresholds()
	if !th.IsDangerous(reading(30.1, 20, 100)) {
		t.Fatal("expected dangerous above 30 kts")
	}
	if th.IsDangerous(reading(30, 20, 100)) {
		t.Fatal("expected 30 kts exactly to not be dangerous")
	}
	if !th.IsDangerous(reading(20, 35, 100)) {
		t.Fatal("expected dangerous at 35 kts gust")
	}
	gust := 36.0
	if !th.IsDangerous(Reading{Gust: &gust}) {
		t.Fatal("expected gust alone to trigger dangerous")
	}
}

func TestIsOffshore(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		r    Reading
		want bool
	}{
		{"north at min speed", reading(12, 14, 0), true},
		{"arc start", reading(15, 16, 292.5), true},
		{"arc end", reading(15, 16, 67.5), true},
		{"just outside arc", reading(15, 16, 68), false},
		{"too light", reading(11.99, 13, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := th.IsOffshore(tc.r); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsGood(t *testing.T) {
	th := DefaultThresholds()
	if !th.IsGood(reading(18, 20, 120), 15) {
		t.Fatal("expected good onshore wind")
	}
	if th.IsGood(reading(18, 20, 0), 15) {
		t.Fatal("expected offshore direction to exclude good")
	}
	if th.IsGood(reading(27.1, 28, 120), 15) {
		t.Fatal("expected above max good wind to exclude good")
	}
	if th.IsGood(reading(14.9, 16, 120), 15) {
		t.Fatal("expected below subscriber minimum to exclude good")
	}
	if !th.IsGood(reading(27, 28, 120), 15) {
		t.Fatal("expected max good wind to be inclusive")
	}
}

func TestIsWindUpEdge(t *testing.T) {
	th := DefaultThresholds()
	if !th.IsWindUpEdge(reading(14, 15, 120), reading(15, 16, 120), 15) {
		t.Fatal("expected edge when crossing the minimum")
	}
	if th.IsWindUpEdge(reading(15, 16, 120), reading(16, 17, 120), 15) {
		t.Fatal("expected no edge when already above the minimum")
	}
	if th.IsWindUpEdge(Reading{}, reading(16, 17, 120), 15) {
		t.Fatal("expected no edge without a previous speed")
	}
}

func TestCardinal(t *testing.T) {
	cases := []struct {
		degrees float64
		want    string
	}{
		{0, "N"},
		{90, "E"},
		{112.5, "ESE"},
		{180, "S"},
		{225, "SO"},
		{270, "O"},
		{337.5, "NNO"},
		{359, "N"},
	}
	for _, tc := range cases {
		if got := Cardinal(tc.degrees); got != tc.want {
			t.Fatalf("Cardinal(%v): expected %s, got %s", tc.degrees, tc.want, got)
		}
	}

	if got := CardinalOf(Reading{}); got != "N/A" {
		t.Fatalf("expected N/A for missing direction, got %s", got)
	}
}
