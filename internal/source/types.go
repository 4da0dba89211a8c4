package source

import (
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
)

// RecordSource 统一的作业记录来源。无论来源是schedd、缓存文件还是数据库，
// 返回的表形状一致，分析引擎不感知区别。
type RecordSource interface {
	// 获取作业记录表。表的列由projection确定，数据源不支持的列
	// 以缺失值表示，不会产生错误。无法访问数据源时返回
	// core.ErrSourceUnavailable。无法转换的单条记录会被跳过并记录日志，
	// 不会使整个获取失败。
	FetchJobs(projection core.Projection) (*core.Table, error)
}
