package normalize

import (
	"regexp"
	"strings"
)

// futuresExpiry matches a CME-style month code plus a one or two digit year at the
// end of a symbol (MESZ5, GCZ25). The root must keep at least one character.
var futuresExpiry = regexp.MustCompile(`^([A-Z0-9]+?)([FGHJKMNQUVXZ])(\d{1,2})$`)

// Symbol is the result of symbol normalization.
type Symbol struct {
	Raw      string // as reported by the source
	Contract string // exchange stripped, expiry kept (MESZ5)
	Base     string // expiry stripped (MES); used for tick lookup and Trade.Instrument
}

// NormalizeSymbol strips exchange decorations and the futures expiry suffix.
//
// Examples:
//
//	MESZ5      -> contract MESZ5, base MES
//	ESH5@CME   -> contract ESH5,  base ES
//	CME:NQM25  -> contract NQM25, base NQ
//	AAPL       -> contract AAPL,  base AAPL
func NormalizeSymbol(raw string) Symbol {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "@."); i > 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, " ", "")

	base := s
	if m := futuresExpiry.FindStringSubmatch(s); m != nil {
		base = m[1]
	}
	return Symbol{Raw: raw, Contract: s, Base: base}
}
