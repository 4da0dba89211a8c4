package core

import (
	"fmt"
	"math"
)

// HTCondor作业记录的属性名
const (
	AttrClusterId     = "ClusterId"
	AttrProcId        = "ProcId"
	AttrOwner         = "Owner"
	AttrRequestMemory = "RequestMemory"
	AttrMemoryUsage   = "MemoryUsage"
	AttrJobStatus     = "JobStatus"
)

// HTCondor作业状态码
const (
	JobStatusIdle      = 1
	JobStatusRunning   = 2
	JobStatusRemoved   = 3
	JobStatusCompleted = 4
	JobStatusHeld      = 5
)

var ErrSourceUnavailable = fmt.Errorf("数据源不可用")

var ErrMalformedRecord = fmt.Errorf("作业记录格式有误")

var ErrInvalidParameter = fmt.Errorf("参数无效")

// JobRecord 一个作业实例的记录。UsedMemoryMB可能缺失，缺失时为NaN。
// Extra保存明确请求的额外属性，分析引擎不会读取这些属性。
type JobRecord struct {
	ClusterId       int64
	ProcId          int64
	Owner           string
	RequestMemoryMB float64
	UsedMemoryMB    float64
	JobStatus       int
	Extra           map[string]string
}

// 本记录是否有内存使用量数据
func (r *JobRecord) HasUsage() bool {
	return !math.IsNaN(r.UsedMemoryMB)
}

// Table 从数据源获取的作业记录表。Columns为获取时确定的列名，
// 顺序与缓存文件的表头一致。
type Table struct {
	Columns []string
	Records []*JobRecord
}

func (t *Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

type ProjectionMode string

const (
	// 获取默认的内存分析属性
	ProjectionDefault = ProjectionMode("default")
	// 获取数据源提供的所有属性
	ProjectionAll = ProjectionMode("all")
	// 获取指定的属性，加上身份属性
	ProjectionCustom = ProjectionMode("custom")
)

// Projection 指定从数据源获取哪些属性
type Projection struct {
	Mode       ProjectionMode
	Attributes []string
}

// 默认的内存分析属性集合
func DefaultAttributes() []string {
	return []string{
		AttrClusterId,
		AttrProcId,
		AttrOwner,
		AttrRequestMemory,
		AttrMemoryUsage,
		AttrJobStatus,
	}
}

// 身份属性，Custom模式下总是包含
func IdentityAttributes() []string {
	return []string{AttrClusterId, AttrProcId, AttrOwner}
}

// 计算本Projection请求的列名。All模式返回nil，表示数据源提供的所有列。
// Custom模式把身份属性放到最前，并去除重复的属性。
func (p Projection) Columns() []string {
	switch p.Mode {
	case ProjectionAll:
		return nil
	case ProjectionCustom:
		columns := IdentityAttributes()
		seen := make(map[string]struct{}, len(columns)+len(p.Attributes))
		for _, column := range columns {
			seen[column] = struct{}{}
		}
		for _, attr := range p.Attributes {
			if _, ok := seen[attr]; ok {
				continue
			}
			seen[attr] = struct{}{}
			columns = append(columns, attr)
		}
		return columns
	default:
		return DefaultAttributes()
	}
}
