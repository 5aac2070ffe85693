// Package receipt extracts the total amount from OCR text of Korean
// point-of-sale receipts.
//
// Extraction is a pure heuristic over the recognized lines: an anchored
// scan for the canonical total label, then a priority-ranked search over
// total-label synonyms, then a largest-numeral fallback. The result only
// ever prefills a human-editable form field, so a miss is a normal
// outcome rather than an error.
package receipt

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Plausible won totals for a team expense. Values outside this window
// are register numbers, dates, quantities, barcodes.
const (
	minAmount = 100
	maxAmount = 99_999_999
)

var (
	wonSuffixed = regexp.MustCompile(`([\d,]{1,12})원`)
	numeral     = regexp.MustCompile(`[\d,]{1,12}`)
)

// excludeTerms mark lines that carry numerals which are never totals:
// card/approval numbers, timestamps, installment counts, merchant
// registration data.
var excludeTerms = []string{"번호", "일시", "종류", "개월", "상호", "주소", "등록", "상점", "정보"}

// totalLabels are the total-amount synonyms in priority order, spaced
// OCR variants alongside each compact form. Lower rank wins over any
// value found under a higher rank.
var totalLabels = []struct {
	rank  int
	label string
}{
	{1, "합계금액"}, {1, "합계 금액"},
	{2, "총합계"}, {2, "총 합계"},
	{3, "결제금액"}, {3, "결제 금액"},
	{4, "승인금액"}, {4, "승인 금액"},
	{5, "합계"}, {5, "합 계"},
	{6, "총액"}, {6, "총 액"},
	{7, "합산"},
	{8, "받을금액"}, {8, "받을 금액"},
	{9, "청구금액"}, {9, "청구 금액"},
	{10, "total"}, {10, "amount"},
}

// Result is the outcome of scanning recognized text for a receipt total.
type Result struct {
	Amount    int64  // whole won
	Formatted string // thousands-separated, e.g. "27,190"
	Found     bool
}

// Extract finds the most plausible total in the recognized lines of a
// receipt. Strategies run in order and the first hit wins: an anchored
// 합계금액 scan requiring the 원 suffix, a ranked search over total-label
// synonyms with the suffix optional, and finally the largest in-range
// numeral anywhere in the text.
func Extract(lines []string) Result {
	if v, ok := anchoredScan(lines); ok {
		return found(v)
	}
	if v, ok := labelSearch(lines); ok {
		return found(v)
	}
	if v, ok := largestNumeral(lines); ok {
		return found(v)
	}
	return Result{}
}

func found(v int64) Result {
	return Result{Amount: v, Formatted: formatThousands(v), Found: true}
}

// anchoredScan locates the first line whose space-stripped form contains
// 합계금액 and returns the first in-range 원-suffixed numeral on that
// line, or failing that on any following line.
func anchoredScan(lines []string) (int64, bool) {
	for i, line := range lines {
		if !strings.Contains(stripSpaces(line), "합계금액") {
			continue
		}
		if v, ok := firstSuffixed(line); ok {
			return v, true
		}
		for _, rest := range lines[i+1:] {
			if v, ok := firstSuffixed(rest); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func firstSuffixed(line string) (int64, bool) {
	for _, m := range wonSuffixed.FindAllStringSubmatch(line, -1) {
		if v, ok := parseAmount(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

type candidate struct {
	rank  int
	value int64
}

// labelSearch collects every in-range numeral that sits on (or directly
// under) a total-label synonym, tagged with the label's rank. Lines
// carrying an exclusion term never contribute, as same line or as next
// line. The best rank wins; within a rank, the largest value.
func labelSearch(lines []string) (int64, bool) {
	var cands []candidate
	for i, line := range lines {
		stripped := strings.ToLower(stripSpaces(line))
		if hasExcludeTerm(stripped) {
			continue
		}
		for _, tl := range totalLabels {
			if !strings.Contains(stripped, stripSpaces(tl.label)) {
				continue
			}
			n := appendAmounts(&cands, tl.rank, line)
			if n == 0 && i+1 < len(lines) && !hasExcludeTerm(lines[i+1]) {
				appendAmounts(&cands, tl.rank, lines[i+1])
			}
		}
	}
	if len(cands) == 0 {
		return 0, false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].rank != cands[j].rank {
			return cands[i].rank < cands[j].rank
		}
		return cands[i].value > cands[j].value
	})
	return cands[0].value, true
}

func appendAmounts(cands *[]candidate, rank int, line string) int {
	n := 0
	for _, tok := range numeral.FindAllString(line, -1) {
		if v, ok := parseAmount(tok); ok {
			*cands = append(*cands, candidate{rank: rank, value: v})
			n++
		}
	}
	return n
}

// largestNumeral is the last resort: the maximum in-range numeral
// anywhere in the text.
func largestNumeral(lines []string) (int64, bool) {
	var best int64
	ok := false
	for _, line := range lines {
		for _, tok := range numeral.FindAllString(line, -1) {
			if v, valid := parseAmount(tok); valid && (!ok || v > best) {
				best, ok = v, true
			}
		}
	}
	return best, ok
}

// parseAmount qualifies one matched token: stripping separators must
// leave a non-empty all-digit string whose value lies in range. A bare
// "," match strips to empty and is rejected here.
func parseAmount(tok string) (int64, bool) {
	tok = strings.ReplaceAll(tok, ",", "")
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	if v < minAmount || v > maxAmount {
		return 0, false
	}
	return v, true
}

func hasExcludeTerm(s string) bool {
	for _, t := range excludeTerms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

func formatThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
