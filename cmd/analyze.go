/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"github.com/packagewjx/condor-memory-analyzer/internal/analysis"
	"github.com/packagewjx/condor-memory-analyzer/internal/report"
	"github.com/packagewjx/condor-memory-analyzer/internal/source"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"strings"
)

const (
	ScheddFlag     = "schedd"
	CsvFlag        = "csv"
	MysqlFlag      = "mysql"
	ConstraintFlag = "constraint"
	MinJobsFlag    = "min-jobs"
	LimitFlag      = "limit"
	MatchLimitFlag = "match-limit"
	ThresholdFlag  = "threshold"
	BinsFlag       = "bins"
	BinningFlag    = "binning"
	AttributesFlag = "attributes"
	FetchAllFlag   = "fetch-all"
	CacheCsvFlag   = "cache-csv"
)

const DefaultReportLimit = 100

var schedd string
var csvFile string
var mysqlHost string
var constraint string
var minJobs int
var reportLimit int
var matchLimit int
var threshold float64
var bins int
var binning string
var attributes []string
var fetchAll bool
var cacheCsv string

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "获取作业历史并分析内存使用情况",
	Long: `获取作业历史并分析各簇和各用户的内存使用情况。默认从本地schedd查询，
使用--csv从缓存文件读取，使用--mysql从数据库读取。使用--cache-csv可以
把获取到的原始数据保存为缓存文件。--fetch-all配合--cache-csv只获取并
缓存所有属性，不做分析（探索模式）。`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if csvFile != "" && mysqlHost != "" {
			return fmt.Errorf("--csv与--mysql只能指定一个")
		}
		if csvFile != "" && schedd != "" {
			return fmt.Errorf("--csv与--schedd只能指定一个")
		}
		if fetchAll && cacheCsv == "" {
			return fmt.Errorf("--fetch-all需要配合--cache-csv使用")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		projection := core.Projection{Mode: core.ProjectionDefault}
		if fetchAll {
			log.Println("获取所有作业属性（探索模式）")
			projection.Mode = core.ProjectionAll
		} else if len(attributes) > 0 {
			log.Printf("获取指定的属性：%s\n", strings.Join(attributes, ","))
			projection.Mode = core.ProjectionCustom
			projection.Attributes = attributes
		}

		src, err := newRecordSource()
		if err != nil {
			return err
		}

		table, err := src.FetchJobs(projection)
		if err != nil {
			return errors.Wrap(err, "获取作业记录出错")
		}

		if cacheCsv != "" {
			err = source.Persist(table, cacheCsv)
			if err != nil {
				return errors.Wrap(err, "写入缓存文件出错")
			}
			log.Printf("已缓存%d条记录（%d列）到%s\n",
				len(table.Records), len(table.Columns), cacheCsv)
			if fetchAll {
				fmt.Printf("可用的列：%s\n", strings.Join(table.Columns, ", "))
				return nil
			}
		}

		for _, attr := range core.DefaultAttributes() {
			if !table.HasColumn(attr) {
				return fmt.Errorf("缺少内存分析需要的列%s，现有的列：%s",
					attr, strings.Join(table.Columns, ", "))
			}
		}

		analyzer, err := analysis.NewAnalyzer(&analysis.AnalyzerConfig{
			MinJobs:                 minJobs,
			OverAllocationThreshold: threshold,
			HistogramBins:           bins,
			Binning:                 analysis.BinningMode(binning),
		})
		if err != nil {
			return err
		}
		result, err := analyzer.Analyze(table)
		if err != nil {
			return errors.Wrap(err, "分析出错")
		}

		count := len(result.Clusters)
		if count > reportLimit {
			count = reportLimit
		}
		for _, summary := range result.Clusters[:count] {
			fmt.Println(report.FormatClusterReport(summary))
		}
		fmt.Println(report.FormatSummaryReport(result))

		return nil
	},
}

// 根据命令行参数选择数据源。命令行没有指定时从配置文件读取schedd和mysql地址。
func newRecordSource() (source.RecordSource, error) {
	if csvFile != "" {
		log.Printf("从缓存文件%s读取作业记录\n", csvFile)
		return source.NewCSVSource(csvFile), nil
	}

	if mysqlHost == "" {
		mysqlHost = viper.GetString(MysqlFlag)
	}
	if mysqlHost != "" {
		log.Printf("从数据库%s读取作业记录\n", mysqlHost)
		return source.NewDatabaseSource(&source.DatabaseSourceConfig{
			Host:     mysqlHost,
			User:     viper.GetString("mysql-user"),
			Password: viper.GetString("mysql-password"),
			Limit:    matchLimit,
		})
	}

	if schedd == "" {
		schedd = viper.GetString(ScheddFlag)
	}
	log.Println("从schedd查询作业历史（可能需要一些时间）")
	return source.NewCondorSource(&source.CondorSourceConfig{
		Schedd:     schedd,
		Constraint: constraint,
		MatchLimit: matchLimit,
	})
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&schedd, ScheddFlag, "",
		"要查询的schedd地址。默认为本地schedd")
	analyzeCmd.Flags().StringVar(&csvFile, CsvFlag, "",
		"从缓存文件读取，而不是查询schedd")
	analyzeCmd.Flags().StringVar(&mysqlHost, MysqlFlag, "",
		"从MySQL数据库读取，而不是查询schedd")
	analyzeCmd.Flags().StringVar(&constraint, ConstraintFlag, "",
		"查询的约束表达式，使用HTCondor语法。默认只查询已完成的作业")
	analyzeCmd.Flags().IntVar(&minJobs, MinJobsFlag, analysis.DefaultMinJobs,
		"纳入分析的簇的最小作业数")
	analyzeCmd.Flags().IntVar(&reportLimit, LimitFlag, DefaultReportLimit,
		"最多输出的簇报告数")
	analyzeCmd.Flags().IntVar(&matchLimit, MatchLimitFlag, source.DefaultMatchLimit,
		"最多获取的作业记录条数")
	analyzeCmd.Flags().Float64Var(&threshold, ThresholdFlag, analysis.DefaultOverAllocationThreshold,
		"过度申请判定阈值，取值范围(0, 1]")
	analyzeCmd.Flags().IntVar(&bins, BinsFlag, analysis.DefaultHistogramBins,
		"直方图桶数")
	analyzeCmd.Flags().StringVar(&binning, BinningFlag, string(analysis.BinningFixedWidth),
		"直方图分桶算法。可选值：fixed、natural")
	analyzeCmd.Flags().StringSliceVar(&attributes, AttributesFlag, nil,
		"要获取的属性列表，逗号分隔。身份属性总是包含")
	analyzeCmd.Flags().BoolVar(&fetchAll, FetchAllFlag, false,
		"获取所有可用的属性（探索模式，覆盖--attributes）")
	analyzeCmd.Flags().StringVar(&cacheCsv, CacheCsvFlag, "",
		"把获取到的原始数据缓存到csv文件")
}
