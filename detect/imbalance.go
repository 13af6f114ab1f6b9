package detect

// Imbalance is the fraction of total quoted size sitting on the bid side,
// in [0,1]. An empty book resolves to 0 rather than NaN.
func Imbalance(bidSize, askSize float64) float64 {
	total := bidSize + askSize
	if total == 0 {
		return 0
	}
	return bidSize / total
}
