package report

import (
	"github.com/packagewjx/condor-memory-analyzer/internal/analysis"
	"github.com/stretchr/testify/assert"
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512.00 B", FormatBytes(512))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "2.50 MB", FormatBytes(2.5*1024*1024))
	assert.Equal(t, "1.00 TB", FormatBytes(1024*1024*1024*1024))
}

func TestRenderHistogram(t *testing.T) {
	histogram := &analysis.Histogram{
		Buckets: []analysis.Bucket{
			{Low: 0, High: 100, Count: 4},
			{Low: 100, High: 200, Count: 0},
			{Low: 200, High: 300, Count: 2},
		},
	}
	rendered := RenderHistogram(histogram, 8)
	lines := strings.Split(rendered, "\n")
	assert.Equal(t, 3, len(lines))
	// 最多的桶为最长的条
	assert.Contains(t, lines[0], strings.Repeat("█", 8))
	assert.Contains(t, lines[0], "(4)")
	// 空桶保留，条为空
	assert.Contains(t, lines[1], "(0)")
	assert.NotContains(t, lines[1], "█")
	assert.Contains(t, lines[2], strings.Repeat("█", 4))
}

func TestRenderHistogramEmpty(t *testing.T) {
	assert.Equal(t, "没有数据", RenderHistogram(&analysis.Histogram{}, 50))
	assert.Equal(t, "没有数据", RenderHistogram(nil, 50))
}

func TestFormatClusterReport(t *testing.T) {
	used := analysis.Stats{Mean: 500, Median: 500, Stdev: 81, Min: 400, Max: 600, Count: 3}
	summary := &analysis.ClusterSummary{
		ClusterId:  42,
		Owner:      "alice",
		JobCount:   3,
		Requested:  analysis.Stats{Mean: 1000, Median: 1000, Min: 1000, Max: 1000, Count: 3},
		Used:       &used,
		UsageRatio: 0.5,
		UsedValues: []float64{400, 500, 600},
	}
	formatted := FormatClusterReport(summary)
	assert.Contains(t, formatted, "42")
	assert.Contains(t, formatted, "alice")
	assert.Contains(t, formatted, "500.00")
	assert.Contains(t, formatted, "█")
}

func TestFormatClusterReportWithoutUsage(t *testing.T) {
	summary := &analysis.ClusterSummary{
		ClusterId: 7,
		Owner:     "bob",
		JobCount:  2,
		Requested: analysis.Stats{Mean: 1000, Count: 2},
	}
	formatted := FormatClusterReport(summary)
	assert.Contains(t, formatted, "没有作业上报内存使用量")
}

func TestFormatSummaryReport(t *testing.T) {
	used := analysis.Stats{Mean: 100, Count: 1}
	cluster := &analysis.ClusterSummary{
		ClusterId:     1,
		Owner:         "alice",
		JobCount:      1,
		Requested:     analysis.Stats{Mean: 1000, Count: 1},
		Used:          &used,
		UsageRatio:    0.1,
		OverAllocated: true,
		UsedValues:    []float64{100},
	}
	result := &analysis.Result{
		Clusters: []*analysis.ClusterSummary{cluster},
		Users: []*analysis.UserSummary{
			{Owner: "alice", ClusterIds: []int64{1}, JobCount: 1,
				TotalRequestedMB: 1000, TotalUsedMB: 100, UsageRatio: 0.1},
		},
		Histogram:     &analysis.Histogram{Buckets: []analysis.Bucket{{Low: 100, High: 100, Count: 1}}},
		OverAllocated: []*analysis.ClusterSummary{cluster},
	}
	formatted := FormatSummaryReport(result)
	assert.Contains(t, formatted, "alice")
	assert.Contains(t, formatted, "总结")
	assert.Contains(t, formatted, "过度申请")
	assert.Contains(t, formatted, "10.0")
}
