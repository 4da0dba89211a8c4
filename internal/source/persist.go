package source

import (
	"encoding/csv"
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// 将表写入缓存文件。先写入同目录下的临时文件再重命名，写入中途崩溃
// 不会破坏已有的有效缓存文件。
func Persist(table *core.Table, path string) error {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "创建临时文件出错")
	}

	err = WriteTable(tmp, table)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	err = tmp.Close()
	if err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "关闭临时文件出错")
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, fmt.Sprintf("重命名到%s出错", path))
	}
	return nil
}

// 将表以csv格式写入out。第一行为表头，为本表的列名，之后每行一条记录，
// 缺失值为空字段。
func WriteTable(out io.Writer, table *core.Table) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	err := writer.Write(table.Columns)
	if err != nil {
		return errors.Wrap(err, "写入表头出错")
	}

	row := make([]string, len(table.Columns))
	for i, record := range table.Records {
		for j, column := range table.Columns {
			row[j] = cellValue(record, column)
		}
		err = writer.Write(row)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("写入第%d条记录出错", i+1))
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "写入缓存文件出错")
}
