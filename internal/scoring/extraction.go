package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// Assessment texts describing commendations rather than deductions.
var positiveKeywords = []string{"继续发扬", "正常", "良好", "优秀", "表扬"}

// Assessment texts quoting fines in currency, which are not score deductions.
var moneyKeywords = []string{"元", "钱", "¥", "￥", "RMB", "rmb"}

// ExtractViolationScore pulls the deduction value out of a free-text
// inspection assessment. Positive remarks and monetary fines score 0, a text
// with no numbers scores the minimum deduction of 1.
func ExtractViolationScore(assessment string) float64 {
	text := strings.TrimSpace(assessment)
	if text == "" {
		return 0
	}
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			return 0
		}
	}
	for _, kw := range moneyKeywords {
		if strings.Contains(text, kw) {
			return 0
		}
	}
	matches := numberPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 1.0
	}
	// The deduction is conventionally the last number in the sentence.
	v, err := strconv.ParseFloat(matches[len(matches)-1], 64)
	if err != nil {
		return 1.0
	}
	return v
}
