package extraction

import (
	"strings"
	"unicode"
)

// minTextLengthDefault mirrors G_SERVICE1_MIN_TEXT_LENGTH's fallback,
// spec §4.4.2.
const minTextLengthDefault = 250

const allowedPunctuation = ".,!?;:()[]{}\"'"

// Gate implements the garbage/quality predicate of spec §4.4.2. It never
// panics and always returns in bounded time for any input (spec §8
// "Quality gate totality"). Gate does not itself apply the primary-path
// minimum-length check; that is layered by the caller since it only
// applies to the primary extraction path.
func Gate(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return false
	}

	var controlCount int
	var specialCount int
	var nonPrintableCount int
	var printableASCIICount int
	distinct := make(map[rune]struct{})

	controlRuns := 0
	inControlRun := false

	for _, r := range runes {
		distinct[r] = struct{}{}

		isExcludedControl := r == '\t' || r == '\n' || r == '\r'
		isRunControl := r < 32 && !isExcludedControl

		if isRunControl {
			controlCount++
			if !inControlRun {
				controlRuns++
				inControlRun = true
			}
		} else {
			inControlRun = false
		}

		if r > 126 || (r < 32 && !isExcludedControl) {
			nonPrintableCount++
		}

		if r >= 32 && r <= 126 {
			printableASCIICount++
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) &&
			!strings.ContainsRune(allowedPunctuation, r) {
			specialCount++
		}
	}

	if float64(controlCount)/float64(n) > 0.30 {
		return false
	}
	if controlRuns > 3 {
		return false
	}
	if float64(specialCount)/float64(n) > 0.50 {
		return false
	}
	if len(distinct) < 5 {
		return false
	}

	tokens := strings.Fields(text)
	if len(tokens) > 0 {
		shortCount := 0
		for _, tok := range tokens {
			if len([]rune(tok)) < 2 {
				shortCount++
			}
		}
		if float64(shortCount)/float64(len(tokens)) > 0.70 {
			return false
		}
	}

	if float64(nonPrintableCount)/float64(n) > 0.20 {
		return false
	}

	excludedCount := strings.Count(text, "\t") + strings.Count(text, "\n") + strings.Count(text, "\r")
	denom := n - excludedCount
	if denom <= 0 {
		return false
	}
	if float64(printableASCIICount)/float64(denom) < 0.30 {
		return false
	}

	return true
}

// PassesMinLength applies the primary-path-only minimum length gate
// (spec §4.4.2); minLength <= 0 disables the check.
func PassesMinLength(text string, minLength int) bool {
	if minLength <= 0 {
		return true
	}
	return len(strings.TrimSpace(text)) >= minLength
}
