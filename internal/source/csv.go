package source

import (
	"encoding/csv"
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/internal/utils"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"io"
	"log"
	"os"
)

// 创建读取缓存文件的数据源。文件为带表头的csv，表头为属性名，
// 空字段表示缺失值。
func NewCSVSource(path string) RecordSource {
	return &csvSource{
		path:   path,
		logger: log.New(os.Stdout, "csvsource: ", log.LstdFlags|log.Lshortfile|log.Lmsgprefix),
	}
}

type csvSource struct {
	path   string
	logger *log.Logger
}

var _ RecordSource = &csvSource{}

func (s *csvSource) FetchJobs(projection core.Projection) (*core.Table, error) {
	fin, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("打开缓存文件%s出错：%v", s.path, err))
	}
	defer func() {
		_ = fin.Close()
	}()

	counter := &utils.ReadCounter{Reader: fin}
	reader := csv.NewReader(counter)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("缓存文件%s没有有效的表头：%v", s.path, err))
	}

	columns := projection.Columns()
	if columns == nil {
		columns = header
	}

	records := make([]*core.JobRecord, 0, 16)
	lineCount := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineCount++
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				// 单条记录损坏不应使整个读取失败
				s.logger.Printf("第%d行格式有误，跳过：%v\n", lineCount, err)
				continue
			}
			return nil, errors.Wrap(core.ErrSourceUnavailable,
				fmt.Sprintf("读取缓存文件%s出错：%v", s.path, err))
		}

		cells := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				cells[name] = row[i]
			}
		}
		record, err := recordFromCells(columns, cells)
		if err != nil {
			s.logger.Printf("第%d行记录有误，跳过：%v\n", lineCount, err)
			continue
		}
		records = append(records, record)
	}

	s.logger.Printf("从%s读取了%d字节，共%d条记录\n", s.path, counter.Count, len(records))

	return &core.Table{Columns: columns, Records: records}, nil
}
