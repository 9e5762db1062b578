package extraction

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountRe    = regexp.MustCompile(`[0-9]+[.,][0-9]{2}`)
	nonAmountRe = regexp.MustCompile(`[^0-9.]`)
)

// lastAmountOn scans lines bottom-to-top for one containing keyword
// (and not containing avoid, when set) and returns the last money-like
// number on that line. Totals sit at the bottom of a receipt, so the
// reverse scan finds the right line first.
func lastAmountOn(lines []string, keyword, avoid string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		low := strings.ToLower(lines[i])
		if !strings.Contains(low, keyword) {
			continue
		}
		if avoid != "" && strings.Contains(low, avoid) {
			continue
		}
		matches := amountRe.FindAllString(strings.ReplaceAll(lines[i], ",", "."), -1)
		if len(matches) > 0 {
			return matches[len(matches)-1]
		}
	}
	return ""
}

// normalizeAmount strips everything but digits and the decimal dot,
// converting a decimal comma along the way.
func normalizeAmount(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return nonAmountRe.ReplaceAllString(s, "")
}

// amountsNearBottom collects every parseable amount in the last lastN
// lines.
func amountsNearBottom(lines []string, lastN int) []float64 {
	start := len(lines) - lastN
	if start < 0 {
		start = 0
	}
	var nums []float64
	for _, line := range lines[start:] {
		for _, m := range amountRe.FindAllString(strings.ReplaceAll(line, ",", "."), -1) {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				nums = append(nums, v)
			}
		}
	}
	return nums
}

// findTotal extracts the receipt total. Explicit "total" lines win
// (avoiding "sub total"), then "amount due" and "balance due". When
// both a subtotal and a tax line exist, their sum sanity-checks the
// read total: a disagreement above 1.0 means a misread digit, and the
// computed sum overrides. Last resort is the largest amount near the
// bottom of the receipt.
func findTotal(lines []string) (string, float64) {
	total := lastAmountOn(lines, "total", "sub")
	if total == "" {
		total = lastAmountOn(lines, "amount due", "")
	}
	if total == "" {
		total = lastAmountOn(lines, "balance due", "")
	}

	subtotal := lastAmountOn(lines, "sub total", "")
	if subtotal == "" {
		subtotal = lastAmountOn(lines, "subtotal", "")
	}
	tax := lastAmountOn(lines, "tax", "")

	totalN := normalizeAmount(total)
	subtotalN := normalizeAmount(subtotal)
	taxN := normalizeAmount(tax)

	if subtotalN != "" && taxN != "" {
		st, stErr := strconv.ParseFloat(subtotalN, 64)
		tx, txErr := strconv.ParseFloat(taxN, 64)
		if stErr == nil && txErr == nil {
			expected := st + tx
			if totalN == "" {
				return fmt.Sprintf("%.2f", expected), 0.65
			}
			if t, err := strconv.ParseFloat(totalN, 64); err == nil {
				if math.Abs(t-expected) > 1.0 {
					return fmt.Sprintf("%.2f", expected), 0.7
				}
				return fmt.Sprintf("%.2f", t), 0.8
			}
		}
	}

	if totalN != "" {
		if t, err := strconv.ParseFloat(totalN, 64); err == nil {
			return fmt.Sprintf("%.2f", t), 0.8
		}
		return totalN, 0.6
	}

	if nums := amountsNearBottom(lines, 30); len(nums) > 0 {
		best := nums[0]
		for _, v := range nums[1:] {
			if v > best {
				best = v
			}
		}
		return fmt.Sprintf("%.2f", best), 0.5
	}

	return "", 0.3
}
