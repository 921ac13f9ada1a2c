package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// formatCHF renders a whole-franc amount with Swiss grouping, e.g. "CHF 1'234".
func formatCHF(v float64) string {
	rounded := roundCHF(v)
	if rounded < 0 {
		return "-CHF " + humanize.FormatFloat("#'###.", float64(-rounded))
	}
	return "CHF " + humanize.FormatFloat("#'###.", float64(rounded))
}

func formatPercent(ratio float64) string {
	return fmt.Sprintf("%d%%", roundCHF(ratio*100))
}

func formatSavingsCapacity(capacity float64) string {
	if capacity < 0 {
		return "Déficit " + formatCHF(math.Abs(capacity))
	}
	return formatCHF(capacity)
}

func formatMonths(m float64) string {
	return strconv.FormatFloat(m, 'f', 1, 64) + " mois"
}

// formatCount prints a month threshold without a trailing ".0".
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
