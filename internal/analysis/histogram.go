package analysis

import (
	"github.com/packagewjx/kmeanspp"
	"log"
	"math"
	"sort"
)

// Bucket 直方图的一个桶，范围为[Low, High)，最后一个桶为[Low, High]
type Bucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram 有序的桶序列，覆盖观测范围。空桶保留，Count为0。
type Histogram struct {
	Buckets []Bucket `json:"buckets"`
}

// 直方图内样本总数
func (h *Histogram) Total() int {
	total := 0
	for _, bucket := range h.Buckets {
		total += bucket.Count
	}
	return total
}

// 分桶算法
type Binner interface {
	Bin(values []float64, numBuckets int) *Histogram
}

type BinningMode string

const (
	// 固定宽度分桶
	BinningFixedWidth = BinningMode("fixed")
	// 使用一维K-Means聚类中心确定桶边界
	BinningNaturalBreaks = BinningMode("natural")
)

const naturalBreaksRound = 30

func GetBinner(mode BinningMode) Binner {
	switch mode {
	case BinningNaturalBreaks:
		return &naturalBreaksBinner{}
	default:
		return &fixedWidthBinner{}
	}
}

type fixedWidthBinner struct {
}

func (b *fixedWidthBinner) Bin(values []float64, numBuckets int) *Histogram {
	if len(values) == 0 || numBuckets <= 0 {
		return &Histogram{}
	}

	min := values[0]
	max := values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if min == max {
		return &Histogram{Buckets: []Bucket{{Low: min, High: max, Count: len(values)}}}
	}

	width := (max - min) / float64(numBuckets)
	buckets := make([]Bucket, numBuckets)
	for i := 0; i < numBuckets; i++ {
		buckets[i].Low = min + float64(i)*width
		buckets[i].High = min + float64(i+1)*width
	}
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= numBuckets {
			idx = numBuckets - 1
		}
		buckets[idx].Count++
	}

	return &Histogram{Buckets: buckets}
}

type naturalBreaksBinner struct {
}

func (b *naturalBreaksBinner) Bin(values []float64, numBuckets int) *Histogram {
	if len(values) == 0 || numBuckets <= 0 {
		return &Histogram{}
	}
	if len(values) < numBuckets {
		log.Printf("样本数%d少于桶数%d，退回固定宽度分桶", len(values), numBuckets)
		return (&fixedWidthBinner{}).Bin(values, numBuckets)
	}

	data := make([][]float32, len(values))
	for i, v := range values {
		data[i] = []float32{float32(v)}
	}
	centers, _ := kmeanspp.KMeansPP(numBuckets, naturalBreaksRound, data)

	centerValues := make([]float64, 0, len(centers))
	for _, center := range centers {
		v := float64(center[0])
		if math.IsNaN(v) {
			continue
		}
		centerValues = append(centerValues, v)
	}
	sort.Float64s(centerValues)

	min := values[0]
	max := values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max || len(centerValues) < 2 {
		return &Histogram{Buckets: []Bucket{{Low: min, High: max, Count: len(values)}}}
	}

	// 相邻聚类中心的中点作为桶边界，去除重复的边界
	bounds := make([]float64, 0, len(centerValues)+1)
	bounds = append(bounds, min)
	for i := 1; i < len(centerValues); i++ {
		mid := (centerValues[i-1] + centerValues[i]) / 2
		if mid > bounds[len(bounds)-1] && mid < max {
			bounds = append(bounds, mid)
		}
	}
	bounds = append(bounds, max)

	buckets := make([]Bucket, len(bounds)-1)
	for i := 0; i < len(buckets); i++ {
		buckets[i].Low = bounds[i]
		buckets[i].High = bounds[i+1]
	}
	// 桶范围为[Low, High)，落在边界上的值归入右侧的桶，最大值归入最后一个桶
	interior := bounds[1 : len(bounds)-1]
	for _, v := range values {
		idx := sort.SearchFloat64s(interior, v)
		if idx < len(interior) && interior[idx] == v {
			idx++
		}
		buckets[idx].Count++
	}

	return &Histogram{Buckets: buckets}
}
