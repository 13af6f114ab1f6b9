package detect

import (
	"fmt"
	"math"
	"strconv"

	"marketeye/models"
)

// Detection thresholds.
const (
	haltGapSeconds = 120.0
	whaleNotional  = 1_000_000.0
	volSpikeFactor = 5.0
	flashThreshold = 2.0
)

// TradeContext carries the derived per-trade inputs the classifier needs.
// GapSeconds and AvgSize are the values as they stood before this trade was
// folded into per-symbol state; ChangePct is the windowed percent change and
// is only meaningful when ChangeOK is true.
type TradeContext struct {
	GapSeconds float64
	AvgSize    float64
	ChangePct  float64
	ChangeOK   bool
}

// Classify runs all anomaly rules against one trade and returns the matches
// in a fixed order: halt/resume, whale, volume spike, flash spike/crash.
// The rules are independent; a single trade can produce up to four results.
func Classify(symbol string, price, size float64, ctx TradeContext) []models.Anomaly {
	var out []models.Anomaly

	if ctx.GapSeconds > haltGapSeconds {
		out = append(out, models.Anomaly{
			Kind:   models.AnomalyHaltResume,
			Symbol: symbol,
			Detail: "Halt Resume",
			Price:  price,
		})
	}

	if notional := price * size; notional > whaleNotional {
		out = append(out, models.Anomaly{
			Kind:   models.AnomalyWhale,
			Symbol: symbol,
			Detail: "Whale " + groupThousands(notional),
			Price:  price,
		})
	}

	if ctx.AvgSize > 0 && size > ctx.AvgSize*volSpikeFactor {
		out = append(out, models.Anomaly{
			Kind:   models.AnomalyVolSpike,
			Symbol: symbol,
			Detail: fmt.Sprintf("Vol Spike %.0f", size),
			Price:  price,
		})
	}

	if ctx.ChangeOK && math.Abs(ctx.ChangePct) >= flashThreshold {
		kind := models.AnomalyFlashSpike
		if ctx.ChangePct <= 0 {
			kind = models.AnomalyFlashCrash
		}
		out = append(out, models.Anomaly{
			Kind:   kind,
			Symbol: symbol,
			Detail: fmt.Sprintf("%+.2f%%", ctx.ChangePct),
			Price:  price,
		})
	}

	return out
}

// groupThousands renders v rounded to a whole number with comma separators,
// e.g. 1234567.2 -> "1,234,567".
func groupThousands(v float64) string {
	s := strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) > 3 {
		var b []byte
		lead := len(s) % 3
		if lead > 0 {
			b = append(b, s[:lead]...)
		}
		for i := lead; i < len(s); i += 3 {
			if len(b) > 0 {
				b = append(b, ',')
			}
			b = append(b, s[i:i+3]...)
		}
		s = string(b)
	}
	if neg {
		s = "-" + s
	}
	return s
}
