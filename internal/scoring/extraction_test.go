package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractViolationScore(t *testing.T) {
	tests := []struct {
		name       string
		assessment string
		want       float64
	}{
		{"empty text", "", 0},
		{"positive remark", "工作表现优秀，继续发扬", 0},
		{"normal inspection", "检查正常", 0},
		{"monetary fine ignored", "罚款200元", 0},
		{"plain deduction", "违规操作，扣2分", 2},
		{"decimal deduction", "扣0.5分", 0.5},
		{"last number wins", "第3次违规，扣5分", 5},
		{"no numbers defaults to minimum", "作业不规范", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractViolationScore(tt.assessment))
		})
	}
}
