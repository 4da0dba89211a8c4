package source

import (
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"log"
	"math"
	"os"
)

// JobRecordDO 数据库中的作业历史记录
type JobRecordDO struct {
	gorm.Model
	ClusterId       int64  `gorm:"uniqueIndex:job"`
	ProcId          int64  `gorm:"uniqueIndex:job"`
	Owner           string `gorm:"type:VARCHAR(256)"`
	RequestMemoryMB float64
	UsedMemoryMB    *float64 // NULL表示该作业没有上报使用量
	JobStatus       int
}

// DatabaseSourceConfig 从MySQL读取作业历史的配置
type DatabaseSourceConfig struct {
	Host     string // MySQL地址，host:port形式。空则从环境变量获取
	User     string
	Password string
	Database string
	Limit    int // 最多读取的记录条数。0表示使用默认值
}

func (config *DatabaseSourceConfig) Complete() error {
	if config.Host == "" {
		config.Host = fmt.Sprintf("%s:%s",
			os.Getenv("MYSQL_SERVICE_HOST"), os.Getenv("MYSQL_SERVICE_PORT"))
	}
	if config.User == "" {
		config.User = "root"
	}
	if config.Database == "" {
		config.Database = "condor"
	}
	if config.Limit == 0 {
		config.Limit = DefaultMatchLimit
	}
	if config.Limit < 0 {
		return errors.Wrap(core.ErrInvalidParameter,
			fmt.Sprintf("Limit不能为负数，现在为%d", config.Limit))
	}
	return nil
}

// 创建从MySQL读取作业历史的数据源
func NewDatabaseSource(config *DatabaseSourceConfig) (RecordSource, error) {
	if err := config.Complete(); err != nil {
		return nil, err
	}

	databaseURL := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.User, config.Password, config.Host, config.Database)
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "", 0), logger.Config{
			LogLevel: logger.Silent,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("连接数据库%s出错：%v", config.Host, err))
	}

	err = db.AutoMigrate(&JobRecordDO{})
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("创建表格时出现异常：%v", err))
	}

	return &databaseSource{
		config: config,
		db:     db,
		logger: log.New(os.Stdout, "dbsource: ", log.LstdFlags|log.Lshortfile|log.Lmsgprefix),
	}, nil
}

type databaseSource struct {
	config *DatabaseSourceConfig
	db     *gorm.DB
	logger *log.Logger
}

var _ RecordSource = &databaseSource{}

func (s *databaseSource) FetchJobs(projection core.Projection) (*core.Table, error) {
	doarr := make([]*JobRecordDO, 0)
	err := s.db.Limit(s.config.Limit).Find(&doarr).Error
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("查询作业记录出错：%v", err))
	}
	s.logger.Printf("从数据库读取了%d条作业记录\n", len(doarr))

	// 数据库的模式是固定的，All模式下也只有默认属性
	columns := projection.Columns()
	if columns == nil {
		columns = core.DefaultAttributes()
	}

	records := make([]*core.JobRecord, 0, len(doarr))
	for _, do := range doarr {
		records = append(records, recordFromDO(do))
	}

	return &core.Table{Columns: columns, Records: records}, nil
}

func recordFromDO(do *JobRecordDO) *core.JobRecord {
	record := &core.JobRecord{
		ClusterId:       do.ClusterId,
		ProcId:          do.ProcId,
		Owner:           do.Owner,
		RequestMemoryMB: do.RequestMemoryMB,
		UsedMemoryMB:    math.NaN(),
		JobStatus:       do.JobStatus,
	}
	if do.UsedMemoryMB != nil {
		record.UsedMemoryMB = *do.UsedMemoryMB
	}
	return record
}
