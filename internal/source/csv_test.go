package source

import (
	"errors"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"
)

func TestCSVSourceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	table := &core.Table{
		Columns: core.DefaultAttributes(),
		Records: []*core.JobRecord{
			{ClusterId: 1, ProcId: 0, Owner: "alice", RequestMemoryMB: 1024, UsedMemoryMB: 512.5, JobStatus: core.JobStatusCompleted},
			{ClusterId: 1, ProcId: 1, Owner: "alice", RequestMemoryMB: 1024, UsedMemoryMB: math.NaN(), JobStatus: core.JobStatusCompleted},
			{ClusterId: 2, ProcId: 0, Owner: "bob", RequestMemoryMB: 2048, UsedMemoryMB: 100, JobStatus: core.JobStatusHeld},
		},
	}

	err := Persist(table, path)
	require.NoError(t, err)

	read, err := NewCSVSource(path).FetchJobs(core.Projection{Mode: core.ProjectionAll})
	require.NoError(t, err)
	assert.Equal(t, table.Columns, read.Columns)
	require.Equal(t, len(table.Records), len(read.Records))
	for i, record := range table.Records {
		got := read.Records[i]
		assert.Equal(t, record.ClusterId, got.ClusterId)
		assert.Equal(t, record.ProcId, got.ProcId)
		assert.Equal(t, record.Owner, got.Owner)
		assert.Equal(t, record.RequestMemoryMB, got.RequestMemoryMB)
		assert.Equal(t, record.JobStatus, got.JobStatus)
		// 缺失的使用量来回转换后仍然缺失
		if record.HasUsage() {
			assert.Equal(t, record.UsedMemoryMB, got.UsedMemoryMB)
		} else {
			assert.False(t, got.HasUsage())
		}
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nonexistent.csv")).
		FetchJobs(core.Projection{Mode: core.ProjectionDefault})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
}

func TestCSVSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, ioutil.WriteFile(path, nil, 0666))

	_, err := NewCSVSource(path).FetchJobs(core.Projection{Mode: core.ProjectionDefault})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
}

func TestCSVSourceSkipsMalformedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	content := "ClusterId,ProcId,Owner,RequestMemory,MemoryUsage,JobStatus\n" +
		"1,0,alice,1024,512,4\n" +
		"not-a-number,0,bob,1024,512,4\n" +
		"2,0,carol,1024,512,4\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0666))

	// 单条损坏的记录不会使整个读取失败
	table, err := NewCSVSource(path).FetchJobs(core.Projection{Mode: core.ProjectionDefault})
	require.NoError(t, err)
	require.Equal(t, 2, len(table.Records))
	assert.Equal(t, int64(1), table.Records[0].ClusterId)
	assert.Equal(t, int64(2), table.Records[1].ClusterId)
}

func TestCSVSourceMissingColumnIsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	content := "ClusterId,ProcId,Owner,RequestMemory\n" +
		"1,0,alice,1024\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0666))

	// 文件没有的列以缺失值表示，不产生错误
	table, err := NewCSVSource(path).FetchJobs(core.Projection{Mode: core.ProjectionDefault})
	require.NoError(t, err)
	require.Equal(t, 1, len(table.Records))
	assert.False(t, table.Records[0].HasUsage())
	assert.Equal(t, 0, table.Records[0].JobStatus)
	assert.Equal(t, float64(1024), table.Records[0].RequestMemoryMB)
}

func TestCSVSourceCustomProjection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	content := "ClusterId,ProcId,Owner,RequestMemory,MemoryUsage,JobStatus,RequestCpus\n" +
		"1,0,alice,1024,512,4,8\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0666))

	table, err := NewCSVSource(path).FetchJobs(core.Projection{
		Mode:       core.ProjectionCustom,
		Attributes: []string{"RequestCpus"},
	})
	require.NoError(t, err)
	// 身份属性总是包含
	assert.Equal(t, []string{"ClusterId", "ProcId", "Owner", "RequestCpus"}, table.Columns)
	require.Equal(t, 1, len(table.Records))
	assert.Equal(t, "8", table.Records[0].Extra["RequestCpus"])
	// 没有请求的属性为缺失值
	assert.False(t, table.Records[0].HasUsage())
}

func TestPersistOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte("old content"), 0666))

	table := &core.Table{
		Columns: core.DefaultAttributes(),
		Records: []*core.JobRecord{
			{ClusterId: 1, ProcId: 0, Owner: "alice", RequestMemoryMB: 1024, UsedMemoryMB: 512, JobStatus: 4},
		},
	}
	require.NoError(t, Persist(table, path))

	read, err := NewCSVSource(path).FetchJobs(core.Projection{Mode: core.ProjectionAll})
	require.NoError(t, err)
	assert.Equal(t, 1, len(read.Records))

	// 目录中不残留临时文件
	entries, err := ioutil.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, 1, len(entries))
}
