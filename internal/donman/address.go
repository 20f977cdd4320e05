package donman

import "strings"

// Address holds the decomposed parts of a free-text Australian address.
// Components that could not be identified are empty strings.
type Address struct {
	Street   string
	Suburb   string
	State    string
	Postcode string
}

// australianStates are the state and territory abbreviations recognised at
// the tail of an address.
var australianStates = map[string]struct{}{
	"NSW": {}, "VIC": {}, "QLD": {}, "SA": {}, "WA": {}, "TAS": {}, "NT": {}, "ACT": {},
}

// streetSuffixes mark the last token of the street portion of an address.
// Matching is case-insensitive and tolerates a trailing period ("St.").
var streetSuffixes = map[string]struct{}{
	"st": {}, "street": {}, "rd": {}, "road": {}, "ave": {}, "avenue": {},
	"dr": {}, "drive": {}, "ct": {}, "court": {}, "pl": {}, "place": {},
	"cres": {}, "crescent": {}, "blvd": {}, "boulevard": {}, "ln": {}, "lane": {},
	"tce": {}, "terrace": {}, "way": {}, "cl": {}, "close": {}, "pde": {}, "parade": {},
	"hwy": {}, "highway": {}, "cir": {}, "circle": {}, "gr": {}, "grove": {},
}

// ParseAddress splits a free-text address like "5 Smith St Mornington VIC 3931"
// into street, suburb, state and postcode. It is best-effort and never fails:
// addresses without a recognisable street suffix keep everything in Street.
func ParseAddress(address string) Address {
	var out Address

	tokens := strings.Fields(address)
	if len(tokens) == 0 {
		return out
	}

	postcodeIndex := -1
	stateIndex := -1

	last := tokens[len(tokens)-1]
	if isPostcode(last) {
		out.Postcode = last
		postcodeIndex = len(tokens) - 1

		if len(tokens) >= 2 && isState(tokens[len(tokens)-2]) {
			out.State = strings.ToUpper(tokens[len(tokens)-2])
			stateIndex = len(tokens) - 2
		}
	} else if isState(last) {
		out.State = strings.ToUpper(last)
		stateIndex = len(tokens) - 1
	}

	// The addressable span is everything before the detected state, else
	// before the postcode, else the whole token list.
	end := len(tokens)
	if stateIndex >= 0 {
		end = stateIndex
	} else if postcodeIndex >= 0 {
		end = postcodeIndex
	}

	streetEnd := findStreetEnd(tokens, end)
	if streetEnd > 0 && streetEnd < end {
		out.Street = strings.Join(tokens[:streetEnd], " ")
		out.Suburb = strings.Join(tokens[streetEnd:end], " ")
	} else {
		// No split point found; the whole span is the street.
		out.Street = strings.Join(tokens[:end], " ")
	}

	return out
}

// findStreetEnd scans for the first street-type suffix token and returns the
// index of the first suburb token, or 0 when no split point exists.
func findStreetEnd(tokens []string, end int) int {
	for i := 0; i < end; i++ {
		clean := strings.ToLower(strings.TrimRight(tokens[i], "."))
		if _, ok := streetSuffixes[clean]; ok {
			return i + 1
		}
	}
	return 0
}

// isPostcode reports whether the token is exactly four digits.
func isPostcode(token string) bool {
	if len(token) != 4 {
		return false
	}
	for _, c := range token {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isState(token string) bool {
	_, ok := australianStates[strings.ToUpper(token)]
	return ok
}
