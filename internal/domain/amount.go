package domain

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Amount is a CHF figure read from user input. Decoding never fails:
// anything that is not a finite number ends up as 0.
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings ("1'200 CHF") and null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(ParseAmount(raw))
	return nil
}

// Float returns the amount as float64, with non-finite values mapped to 0.
func (a Amount) Float() float64 {
	return finiteOrZero(float64(a))
}

var amountReplacer = strings.NewReplacer("CHF", "", "chf", "", ",", "", "'", "", "’", "")

// ParseAmount is the single parse-or-zero conversion used at every input
// boundary. nil, empty strings, booleans, composite values and anything
// non-finite return 0.
func ParseAmount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(n)
	case float32:
		return finiteOrZero(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case Amount:
		return finiteOrZero(float64(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	case string:
		return parseAmountString(n)
	default:
		return 0
	}
}

func parseAmountString(s string) float64 {
	s = amountReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(f)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
