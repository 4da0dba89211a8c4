package analysis

import (
	"github.com/packagewjx/condor-memory-analyzer/internal/utils"
	"math"
)

// Stats 一组数值的描述性统计。Stdev为总体标准差，因为获取的数据
// 被视为研究的完整总体，而不是抽样。
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// 计算values的描述性统计。values为空时返回全0的Stats。
// 调用者负责过滤NaN值。计算中位数使用快速选择，会改变values内元素的顺序。
func CalculateStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	sum := float64(0)
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	// 只有一个值时标准差为0
	variance := float64(0)
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stdev := math.Sqrt(variance / float64(len(values)))

	return Stats{
		Mean:   mean,
		Median: utils.GetSortedPositionValue(values, len(values)/2),
		Stdev:  stdev,
		Min:    utils.GetSortedPositionValue(values, 0),
		Max:    utils.GetSortedPositionValue(values, len(values)-1),
		Count:  len(values),
	}
}
