package analysis

import (
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"log"
	"math"
	"os"
	"sort"
)

const (
	DefaultMinJobs                 = 20
	DefaultOverAllocationThreshold = 0.5
	DefaultHistogramBins           = 10
)

// AnalyzerConfig 一次分析的配置。生命周期为一次分析运行。
type AnalyzerConfig struct {
	MinJobs                 int         // 纳入分析的簇的最小作业数。0表示不过滤
	OverAllocationThreshold float64     // 过度申请判定阈值，取值范围(0, 1]。0表示使用默认值
	HistogramBins           int         // 直方图桶数。0表示使用默认值
	Binning                 BinningMode // 分桶算法
}

func (config *AnalyzerConfig) Complete() error {
	if config.MinJobs < 0 {
		return errors.Wrap(core.ErrInvalidParameter,
			fmt.Sprintf("MinJobs不能为负数，现在为%d", config.MinJobs))
	}

	if config.OverAllocationThreshold == 0 {
		config.OverAllocationThreshold = DefaultOverAllocationThreshold
	}
	if config.OverAllocationThreshold <= 0 || config.OverAllocationThreshold > 1 {
		return errors.Wrap(core.ErrInvalidParameter,
			fmt.Sprintf("阈值应该在(0, 1]之间，现在为%f", config.OverAllocationThreshold))
	}

	if config.HistogramBins == 0 {
		config.HistogramBins = DefaultHistogramBins
	}
	if config.HistogramBins < 0 {
		return errors.Wrap(core.ErrInvalidParameter,
			fmt.Sprintf("直方图桶数不能为负数，现在为%d", config.HistogramBins))
	}

	if config.Binning == "" {
		config.Binning = BinningFixedWidth
	}

	return nil
}

// ClusterSummary 一个作业簇的内存统计
type ClusterSummary struct {
	ClusterId int64  `json:"clusterId"`
	Owner     string `json:"owner"`
	JobCount  int    `json:"jobCount"`
	Requested Stats  `json:"requested"`
	// 使用量统计，只统计有使用量数据的作业。整个簇都没有使用量数据时为nil
	Used *Stats `json:"used,omitempty"`
	// 每个作业 使用量/申请量 比率的统计，没有可计算的比率时为nil
	Ratios *Stats `json:"ratios,omitempty"`
	// 平均使用量/平均申请量。Used为nil时为NaN
	UsageRatio    float64 `json:"usageRatio"`
	OverAllocated bool    `json:"overAllocated"`
	// 簇内所有作业的内存使用量原始值，用于绘制单簇直方图
	UsedValues []float64 `json:"-"`
}

// UserSummary 一个用户所有簇的汇总
type UserSummary struct {
	Owner            string  `json:"owner"`
	ClusterIds       []int64 `json:"clusterIds"`
	JobCount         int     `json:"jobCount"`
	TotalRequestedMB float64 `json:"totalRequestedMb"`
	TotalUsedMB      float64 `json:"totalUsedMb"`
	// 用户级的 总使用量/总申请量。没有申请量数据时为NaN
	UsageRatio float64 `json:"usageRatio"`
}

// Result 一次分析的结构化结果
type Result struct {
	// 按作业数降序排列，作业数相同时按ClusterId升序
	Clusters []*ClusterSummary `json:"clusters"`
	// 按作业数降序排列，作业数相同时按Owner升序
	Users []*UserSummary `json:"users"`
	// 所有保留簇的内存使用量直方图
	Histogram *Histogram `json:"histogram"`
	// Clusters中被判定为过度申请的子集，按UsageRatio升序，最严重的在前
	OverAllocated []*ClusterSummary `json:"overAllocated"`
}

type Analyzer struct {
	config *AnalyzerConfig
	binner Binner
	logger *log.Logger
}

func NewAnalyzer(config *AnalyzerConfig) (*Analyzer, error) {
	if err := config.Complete(); err != nil {
		return nil, err
	}

	return &Analyzer{
		config: config,
		binner: GetBinner(config.Binning),
		logger: log.New(os.Stdout, "analyzer: ", log.LstdFlags|log.Lshortfile|log.Lmsgprefix),
	}, nil
}

// 分析作业记录表，输出各簇统计、各用户汇总、使用量直方图和过度申请的簇。
// 空表不会出错，返回空的结果。
func (a *Analyzer) Analyze(table *core.Table) (*Result, error) {
	clusters := a.partition(table)
	a.logger.Printf("共%d条记录，作业数不少于%d的簇有%d个\n",
		len(table.Records), a.config.MinJobs, len(clusters))

	summaries := make([]*ClusterSummary, 0, len(clusters))
	for _, records := range clusters {
		summaries = append(summaries, a.summarize(records))
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].JobCount != summaries[j].JobCount {
			return summaries[i].JobCount > summaries[j].JobCount
		}
		return summaries[i].ClusterId < summaries[j].ClusterId
	})

	allUsed := make([]float64, 0)
	for _, summary := range summaries {
		allUsed = append(allUsed, summary.UsedValues...)
	}
	histogram := a.binner.Bin(allUsed, a.config.HistogramBins)

	overAllocated := make([]*ClusterSummary, 0)
	for _, summary := range summaries {
		if summary.OverAllocated {
			overAllocated = append(overAllocated, summary)
		}
	}
	sort.Slice(overAllocated, func(i, j int) bool {
		return overAllocated[i].UsageRatio < overAllocated[j].UsageRatio
	})

	return &Result{
		Clusters:      summaries,
		Users:         a.summarizeUsers(clusters, summaries),
		Histogram:     histogram,
		OverAllocated: overAllocated,
	}, nil
}

// 按ClusterId分组，并去除作业数少于MinJobs的簇
func (a *Analyzer) partition(table *core.Table) map[int64][]*core.JobRecord {
	clusters := make(map[int64][]*core.JobRecord)
	for _, record := range table.Records {
		clusters[record.ClusterId] = append(clusters[record.ClusterId], record)
	}

	if a.config.MinJobs > 0 {
		for clusterId, records := range clusters {
			if len(records) < a.config.MinJobs {
				delete(clusters, clusterId)
			}
		}
	}

	return clusters
}

func (a *Analyzer) summarize(records []*core.JobRecord) *ClusterSummary {
	requested := make([]float64, 0, len(records))
	used := make([]float64, 0, len(records))
	ratios := make([]float64, 0, len(records))
	for _, record := range records {
		if !math.IsNaN(record.RequestMemoryMB) {
			requested = append(requested, record.RequestMemoryMB)
		}
		if record.HasUsage() {
			used = append(used, record.UsedMemoryMB)
			if record.RequestMemoryMB > 0 {
				ratios = append(ratios, record.UsedMemoryMB/record.RequestMemoryMB)
			}
		}
	}

	summary := &ClusterSummary{
		ClusterId:  records[0].ClusterId,
		Owner:      records[0].Owner,
		JobCount:   len(records),
		Requested:  CalculateStats(requested),
		UsageRatio: math.NaN(),
		UsedValues: used,
	}

	if len(used) > 0 {
		usedStats := CalculateStats(used)
		summary.Used = &usedStats
		if summary.Requested.Mean > 0 {
			summary.UsageRatio = usedStats.Mean / summary.Requested.Mean
			// 恰好等于阈值的不算过度申请
			summary.OverAllocated = summary.UsageRatio < a.config.OverAllocationThreshold
		}
	}
	if len(ratios) > 0 {
		ratioStats := CalculateStats(ratios)
		summary.Ratios = &ratioStats
	}

	return summary
}

func (a *Analyzer) summarizeUsers(clusters map[int64][]*core.JobRecord, summaries []*ClusterSummary) []*UserSummary {
	userMap := make(map[string]*UserSummary)
	for _, summary := range summaries {
		user, ok := userMap[summary.Owner]
		if !ok {
			user = &UserSummary{Owner: summary.Owner}
			userMap[summary.Owner] = user
		}
		user.ClusterIds = append(user.ClusterIds, summary.ClusterId)
		user.JobCount += summary.JobCount

		for _, record := range clusters[summary.ClusterId] {
			if !math.IsNaN(record.RequestMemoryMB) {
				user.TotalRequestedMB += record.RequestMemoryMB
			}
			if record.HasUsage() {
				user.TotalUsedMB += record.UsedMemoryMB
			}
		}
	}

	users := make([]*UserSummary, 0, len(userMap))
	for _, user := range userMap {
		sort.Slice(user.ClusterIds, func(i, j int) bool {
			return user.ClusterIds[i] < user.ClusterIds[j]
		})
		if user.TotalRequestedMB > 0 {
			user.UsageRatio = user.TotalUsedMB / user.TotalRequestedMB
		} else {
			user.UsageRatio = math.NaN()
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JobCount != users[j].JobCount {
			return users[i].JobCount > users[j].JobCount
		}
		return users[i].Owner < users[j].Owner
	})

	return users
}
