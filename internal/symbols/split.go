package symbols

import "strings"

// IsCrypto reports whether sym names a crypto pair. Crypto symbols carry a
// slash separator ("BTC/USD"); plain tickers are equities.
func IsCrypto(sym string) bool {
	return strings.Contains(sym, "/")
}

// Split partitions a symbol universe into equity and crypto sets, preserving
// order. The two sets are disjoint by construction.
func Split(syms []string) (equities, crypto []string) {
	for _, s := range syms {
		if IsCrypto(s) {
			crypto = append(crypto, s)
		} else {
			equities = append(equities, s)
		}
	}
	return equities, crypto
}
