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
	"github.com/packagewjx/condor-memory-analyzer/internal/source"
	"github.com/packagewjx/condor-memory-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"strings"
)

var fetchSchedd string
var fetchConstraint string
var fetchMatchLimit int
var fetchAttributes []string

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch outputFile",
	Short: "获取作业历史并缓存到csv文件，不做分析",
	Long: `从schedd获取作业历史并原样缓存到csv文件。默认获取所有可用的属性，
使用--attributes只获取指定的属性。缓存文件之后可以用analyze --csv分析。`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("需要指定输出文件")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		projection := core.Projection{Mode: core.ProjectionAll}
		if len(fetchAttributes) > 0 {
			projection.Mode = core.ProjectionCustom
			projection.Attributes = fetchAttributes
		}

		if fetchSchedd == "" {
			fetchSchedd = viper.GetString(ScheddFlag)
		}
		src, err := source.NewCondorSource(&source.CondorSourceConfig{
			Schedd:     fetchSchedd,
			Constraint: fetchConstraint,
			MatchLimit: fetchMatchLimit,
		})
		if err != nil {
			return err
		}

		table, err := src.FetchJobs(projection)
		if err != nil {
			return errors.Wrap(err, "获取作业记录出错")
		}

		err = source.Persist(table, args[0])
		if err != nil {
			return errors.Wrap(err, "写入缓存文件出错")
		}
		log.Printf("已缓存%d条记录（%d列）到%s\n",
			len(table.Records), len(table.Columns), args[0])
		fmt.Printf("可用的列：%s\n", strings.Join(table.Columns, ", "))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchSchedd, ScheddFlag, "",
		"要查询的schedd地址。默认为本地schedd")
	fetchCmd.Flags().StringVar(&fetchConstraint, ConstraintFlag, "",
		"查询的约束表达式，使用HTCondor语法。默认只查询已完成的作业")
	fetchCmd.Flags().IntVar(&fetchMatchLimit, MatchLimitFlag, source.DefaultMatchLimit,
		"最多获取的作业记录条数")
	fetchCmd.Flags().StringSliceVar(&fetchAttributes, AttributesFlag, nil,
		"要获取的属性列表，逗号分隔。身份属性总是包含")
}
