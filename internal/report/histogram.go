package report

import (
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/internal/analysis"
	"strings"
)

const DefaultBarWidth = 50

// 将直方图渲染为ASCII条形图。width为最长的条的字符数。
func RenderHistogram(histogram *analysis.Histogram, width int) string {
	if histogram == nil || len(histogram.Buckets) == 0 {
		return "没有数据"
	}
	if width <= 0 {
		width = DefaultBarWidth
	}

	maxCount := 0
	for _, bucket := range histogram.Buckets {
		if bucket.Count > maxCount {
			maxCount = bucket.Count
		}
	}

	lines := make([]string, 0, len(histogram.Buckets))
	for _, bucket := range histogram.Buckets {
		barLength := 0
		if maxCount > 0 {
			barLength = bucket.Count * width / maxCount
		}
		lines = append(lines, fmt.Sprintf("  %8.2f - %8.2f | %s (%d)",
			bucket.Low, bucket.High, strings.Repeat("█", barLength), bucket.Count))
	}

	return strings.Join(lines, "\n")
}
