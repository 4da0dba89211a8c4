package source

import (
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"math"
	"strconv"
)

// 将一行字符串单元格转换为JobRecord。cells的键为属性名，缺失的属性
// 不在cells中或值为空字符串。columns为本次获取的列集合，固定属性之外的
// 列保存到Extra中。转换失败时返回包装了core.ErrMalformedRecord的错误。
func recordFromCells(columns []string, cells map[string]string) (*core.JobRecord, error) {
	record := &core.JobRecord{
		RequestMemoryMB: math.NaN(),
		UsedMemoryMB:    math.NaN(),
	}

	for _, column := range columns {
		cell := cells[column]
		switch column {
		case core.AttrClusterId:
			if cell == "" {
				return nil, errors.Wrap(core.ErrMalformedRecord, "缺少ClusterId")
			}
			id, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return nil, errors.Wrap(core.ErrMalformedRecord,
					fmt.Sprintf("解析ClusterId错误，错误值为%s", cell))
			}
			record.ClusterId = id
		case core.AttrProcId:
			if cell == "" {
				return nil, errors.Wrap(core.ErrMalformedRecord, "缺少ProcId")
			}
			id, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return nil, errors.Wrap(core.ErrMalformedRecord,
					fmt.Sprintf("解析ProcId错误，错误值为%s", cell))
			}
			record.ProcId = id
		case core.AttrOwner:
			record.Owner = cell
		case core.AttrRequestMemory:
			value, err := parseMemoryCell(cell)
			if err != nil {
				return nil, errors.Wrap(core.ErrMalformedRecord,
					fmt.Sprintf("解析RequestMemory错误，错误值为%s", cell))
			}
			record.RequestMemoryMB = value
		case core.AttrMemoryUsage:
			value, err := parseMemoryCell(cell)
			if err != nil {
				return nil, errors.Wrap(core.ErrMalformedRecord,
					fmt.Sprintf("解析MemoryUsage错误，错误值为%s", cell))
			}
			record.UsedMemoryMB = value
		case core.AttrJobStatus:
			if cell == "" {
				continue
			}
			status, err := strconv.Atoi(cell)
			if err != nil {
				return nil, errors.Wrap(core.ErrMalformedRecord,
					fmt.Sprintf("解析JobStatus错误，错误值为%s", cell))
			}
			record.JobStatus = status
		default:
			if record.Extra == nil {
				record.Extra = make(map[string]string)
			}
			record.Extra[column] = cell
		}
	}

	return record, nil
}

// 空单元格表示缺失值，返回NaN
func parseMemoryCell(cell string) (float64, error) {
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// 将JobRecord的一个属性转换为缓存文件的单元格。缺失值为空字符串。
func cellValue(record *core.JobRecord, column string) string {
	switch column {
	case core.AttrClusterId:
		return strconv.FormatInt(record.ClusterId, 10)
	case core.AttrProcId:
		return strconv.FormatInt(record.ProcId, 10)
	case core.AttrOwner:
		return record.Owner
	case core.AttrRequestMemory:
		return formatMemoryCell(record.RequestMemoryMB)
	case core.AttrMemoryUsage:
		return formatMemoryCell(record.UsedMemoryMB)
	case core.AttrJobStatus:
		if record.JobStatus == 0 {
			return ""
		}
		return strconv.Itoa(record.JobStatus)
	default:
		return record.Extra[column]
	}
}

func formatMemoryCell(value float64) string {
	if math.IsNaN(value) {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
