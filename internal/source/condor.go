package source

import (
	"encoding/json"
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"io/ioutil"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
)

const (
	DefaultSchedd     = "localhost:9618"
	DefaultConstraint = "JobStatus == 4"
	DefaultMatchLimit = 10000
)

// CondorSourceConfig 查询schedd历史接口的配置。生命周期为一次分析运行，
// 不使用任何全局的默认schedd状态。
type CondorSourceConfig struct {
	Schedd string // schedd历史接口的地址，host:port形式。空表示本地schedd
	// 查询约束表达式，使用HTCondor的语法，原样传给schedd，本工具不解析。
	// 空表示只查询已完成的作业
	Constraint string
	MatchLimit int          // 最多获取的记录条数
	Client     *http.Client // 自定义HTTP客户端，测试用
}

func (config *CondorSourceConfig) Complete() error {
	if config.Schedd == "" {
		config.Schedd = DefaultSchedd
	}
	if config.Constraint == "" {
		config.Constraint = DefaultConstraint
	}
	if config.MatchLimit == 0 {
		config.MatchLimit = DefaultMatchLimit
	}
	if config.MatchLimit < 0 {
		return errors.Wrap(core.ErrInvalidParameter,
			fmt.Sprintf("MatchLimit不能为负数，现在为%d", config.MatchLimit))
	}
	if config.Client == nil {
		config.Client = http.DefaultClient
	}
	return nil
}

// 创建查询schedd作业历史的数据源
func NewCondorSource(config *CondorSourceConfig) (RecordSource, error) {
	if err := config.Complete(); err != nil {
		return nil, err
	}
	return &condorSource{
		config: config,
		logger: log.New(os.Stdout, "condorsource: ", log.LstdFlags|log.Lshortfile|log.Lmsgprefix),
	}, nil
}

type condorSource struct {
	config *CondorSourceConfig
	logger *log.Logger
}

var _ RecordSource = &condorSource{}

func (s *condorSource) FetchJobs(projection core.Projection) (*core.Table, error) {
	columns := projection.Columns()

	query := url.Values{}
	query.Set("constraint", s.config.Constraint)
	query.Set("match", strconv.Itoa(s.config.MatchLimit))
	for _, column := range columns {
		query.Add("projection", column)
	}
	historyUrl := fmt.Sprintf("http://%s/v1/history?%s", s.config.Schedd, query.Encode())

	s.logger.Printf("正在从schedd %s获取作业历史\n", s.config.Schedd)
	response, err := s.config.Client.Get(historyUrl)
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("请求schedd %s出错：%v", s.config.Schedd, err))
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("schedd %s返回%s", s.config.Schedd, response.Status))
	}

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("读取schedd %s响应出错：%v", s.config.Schedd, err))
	}
	ads := make([]map[string]interface{}, 0)
	err = json.Unmarshal(body, &ads)
	if err != nil {
		return nil, errors.Wrap(core.ErrSourceUnavailable,
			fmt.Sprintf("解析schedd %s响应出错：%v", s.config.Schedd, err))
	}
	s.logger.Printf("获取了%d条作业历史记录\n", len(ads))

	if columns == nil {
		columns = adColumns(ads)
	}

	records := make([]*core.JobRecord, 0, len(ads))
	for i, ad := range ads {
		cells := make(map[string]string, len(ad))
		for key, value := range ad {
			cells[key] = adCellValue(value)
		}
		record, err := recordFromCells(columns, cells)
		if err != nil {
			s.logger.Printf("第%d条记录有误，跳过：%v\n", i+1, err)
			continue
		}
		records = append(records, record)
	}

	return &core.Table{Columns: columns, Records: records}, nil
}

// All模式下列集合取所有记录属性名的并集，身份属性在前，其余按名称排序
func adColumns(ads []map[string]interface{}) []string {
	identity := core.IdentityAttributes()
	seen := make(map[string]struct{}, len(identity))
	for _, column := range identity {
		seen[column] = struct{}{}
	}

	rest := make([]string, 0)
	for _, ad := range ads {
		for key := range ad {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(identity, rest...)
}

// 将classad的JSON值转换为统一的字符串单元格
func adCellValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
