package detect

import (
	"testing"

	"marketeye/models"
)

func kinds(as []models.Anomaly) []models.AnomalyKind {
	out := make([]models.AnomalyKind, 0, len(as))
	for _, a := range as {
		out = append(out, a.Kind)
	}
	return out
}

func findKind(t *testing.T, as []models.Anomaly, kind models.AnomalyKind) models.Anomaly {
	t.Helper()
	for _, a := range as {
		if a.Kind == kind {
			return a
		}
	}
	t.Fatalf("expected %s in %v", kind, kinds(as))
	return models.Anomaly{}
}

func TestHaltResumeBoundary(t *testing.T) {
	as := Classify("NVDA", 10, 1, TradeContext{GapSeconds: 121})
	findKind(t, as, models.AnomalyHaltResume)

	as = Classify("NVDA", 10, 1, TradeContext{GapSeconds: 120})
	for _, a := range as {
		if a.Kind == models.AnomalyHaltResume {
			t.Fatalf("gap of exactly 120s must not fire")
		}
	}
}

func TestWhaleBoundary(t *testing.T) {
	as := Classify("NVDA", 10, 100001, TradeContext{AvgSize: 100001})
	a := findKind(t, as, models.AnomalyWhale)
	if a.Detail != "Whale 1,000,010" {
		t.Fatalf("unexpected whale detail %q", a.Detail)
	}

	if as := Classify("NVDA", 10, 99999, TradeContext{AvgSize: 99999}); len(as) != 0 {
		t.Fatalf("notional 999,990 must not fire, got %v", kinds(as))
	}
}

func TestVolSpikeUsesPriorAverage(t *testing.T) {
	as := Classify("NVDA", 1, 600, TradeContext{AvgSize: 100})
	a := findKind(t, as, models.AnomalyVolSpike)
	if a.Detail != "Vol Spike 600" {
		t.Fatalf("unexpected detail %q", a.Detail)
	}

	if as := Classify("NVDA", 1, 400, TradeContext{AvgSize: 100}); len(as) != 0 {
		t.Fatalf("4x baseline must not fire, got %v", kinds(as))
	}
	if as := Classify("NVDA", 1, 600, TradeContext{AvgSize: 0}); len(as) != 0 {
		t.Fatalf("zero baseline must not fire, got %v", kinds(as))
	}
}

func TestFlashThresholds(t *testing.T) {
	as := Classify("NVDA", 100, 1, TradeContext{ChangePct: 2.00, ChangeOK: true})
	if a := findKind(t, as, models.AnomalyFlashSpike); a.Detail != "+2.00%" {
		t.Fatalf("unexpected detail %q", a.Detail)
	}

	if as := Classify("NVDA", 100, 1, TradeContext{ChangePct: -1.99, ChangeOK: true}); len(as) != 0 {
		t.Fatalf("-1.99%% must not fire, got %v", kinds(as))
	}

	as = Classify("NVDA", 100, 1, TradeContext{ChangePct: -2.50, ChangeOK: true})
	if a := findKind(t, as, models.AnomalyFlashCrash); a.Detail != "-2.50%" {
		t.Fatalf("unexpected detail %q", a.Detail)
	}

	// Without a full window the flash rule must not be evaluated at all.
	if as := Classify("NVDA", 100, 1, TradeContext{ChangePct: 10, ChangeOK: false}); len(as) != 0 {
		t.Fatalf("flash rule must be skipped without a window, got %v", kinds(as))
	}
}

func TestClassifyOrderAndIndependence(t *testing.T) {
	as := Classify("NVDA", 1000, 2000, TradeContext{
		GapSeconds: 200,
		AvgSize:    100,
		ChangePct:  -4.5,
		ChangeOK:   true,
	})
	want := []models.AnomalyKind{
		models.AnomalyHaltResume,
		models.AnomalyWhale,
		models.AnomalyVolSpike,
		models.AnomalyFlashCrash,
	}
	got := kinds(as)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if as[1].Detail != "Whale 2,000,000" {
		t.Fatalf("unexpected whale detail %q", as[1].Detail)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		1000010:    "1,000,010",
		1234567.4:  "1,234,567",
		12345678.9: "12,345,679",
	}
	for in, want := range cases {
		if got := groupThousands(in); got != want {
			t.Fatalf("groupThousands(%v) = %q, want %q", in, got, want)
		}
	}
}
