package report

import (
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/internal/analysis"
	"strings"
)

const banner = "================================================================================"

// 将字节数转换为可读的字符串
func FormatBytes(bytes float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	for _, unit := range units {
		if bytes < 1024.0 {
			return fmt.Sprintf("%.2f %s", bytes, unit)
		}
		bytes /= 1024.0
	}
	return fmt.Sprintf("%.2f PB", bytes)
}

// 格式化单个簇的分析报告
func FormatClusterReport(summary *analysis.ClusterSummary) string {
	lines := make([]string, 0, 16)
	lines = append(lines, "", banner)
	lines = append(lines, fmt.Sprintf("簇：%d | 用户：%s | 作业数：%d",
		summary.ClusterId, summary.Owner, summary.JobCount))
	lines = append(lines, banner)

	lines = append(lines, "", "申请内存 (MB)：")
	lines = append(lines, formatStats(summary.Requested))

	lines = append(lines, "", "使用内存 (MB)：")
	if summary.Used != nil {
		lines = append(lines, formatStats(*summary.Used))
	} else {
		lines = append(lines, "    本簇没有作业上报内存使用量")
	}

	if summary.Ratios != nil {
		lines = append(lines, "", "  使用率（使用量/申请量）：")
		lines = append(lines, fmt.Sprintf("    平均：%.2f%% | 中位数：%.2f%%",
			summary.Ratios.Mean*100, summary.Ratios.Median*100))
	}

	if len(summary.UsedValues) > 0 {
		histogram := analysis.GetBinner(analysis.BinningFixedWidth).
			Bin(summary.UsedValues, analysis.DefaultHistogramBins)
		lines = append(lines, "", "  内存使用量直方图 (MB)：")
		lines = append(lines, RenderHistogram(histogram, DefaultBarWidth))
	}

	return strings.Join(lines, "\n")
}

func formatStats(stats analysis.Stats) string {
	return fmt.Sprintf("    平均：%.2f | 中位数：%.2f | 标准差：%.2f\n    最小：%.2f | 最大：%.2f",
		stats.Mean, stats.Median, stats.Stdev, stats.Min, stats.Max)
}

// 格式化总结报告：全局直方图、各用户汇总和过度申请的簇
func FormatSummaryReport(result *analysis.Result) string {
	lines := make([]string, 0, 32)

	lines = append(lines, "", "", banner)
	lines = append(lines, "总结")
	lines = append(lines, banner)
	lines = append(lines, fmt.Sprintf("分析的簇总数：%d", len(result.Clusters)))

	if result.Histogram != nil && result.Histogram.Total() > 0 {
		lines = append(lines, "", banner)
		lines = append(lines, "所有簇的内存使用量直方图 (MB)")
		lines = append(lines, banner)
		lines = append(lines, fmt.Sprintf("有内存使用量数据的作业数：%d", result.Histogram.Total()))
		lines = append(lines, RenderHistogram(result.Histogram, DefaultBarWidth))
	}

	if len(result.Users) > 0 {
		lines = append(lines, "", banner)
		lines = append(lines, "各用户汇总")
		lines = append(lines, banner)
		for _, user := range result.Users {
			clusterIds := make([]string, len(user.ClusterIds))
			for i, id := range user.ClusterIds {
				clusterIds[i] = fmt.Sprint(id)
			}
			lines = append(lines, fmt.Sprintf("\n用户：%s", user.Owner))
			lines = append(lines, fmt.Sprintf("  簇：%d个（ID：%s）",
				len(user.ClusterIds), strings.Join(clusterIds, ", ")))
			lines = append(lines, fmt.Sprintf("  作业总数：%d", user.JobCount))
			lines = append(lines, fmt.Sprintf("  申请内存总量：%s", FormatBytes(user.TotalRequestedMB*1024*1024)))
			lines = append(lines, fmt.Sprintf("  使用内存总量：%s", FormatBytes(user.TotalUsedMB*1024*1024)))
			if user.TotalRequestedMB > 0 {
				lines = append(lines, fmt.Sprintf("  总体使用率：%.2f%%", user.UsageRatio*100))
			}
		}
	}

	if len(result.OverAllocated) > 0 {
		lines = append(lines, "", banner)
		lines = append(lines, "过度申请内存的簇（平均使用量低于判定阈值）")
		lines = append(lines, banner)
		count := len(result.OverAllocated)
		if count > 10 {
			count = 10
		}
		for _, summary := range result.OverAllocated[:count] {
			lines = append(lines, fmt.Sprintf("  簇%d（%s）：平均只使用了%.1f%%",
				summary.ClusterId, summary.Owner, summary.UsageRatio*100))
		}
	}

	return strings.Join(lines, "\n")
}
