/*
Copyright 2025 The Kubeflow authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imadeit/pipectl/cmd/pipectl/delete"
	"github.com/imadeit/pipectl/cmd/pipectl/deploy"
	"github.com/imadeit/pipectl/cmd/pipectl/etl"
	"github.com/imadeit/pipectl/cmd/pipectl/get"
	"github.com/imadeit/pipectl/cmd/pipectl/invoke"
	"github.com/imadeit/pipectl/cmd/pipectl/list"
	"github.com/imadeit/pipectl/cmd/pipectl/run"
	"github.com/imadeit/pipectl/cmd/pipectl/scheduler"
	"github.com/imadeit/pipectl/cmd/pipectl/train"
	"github.com/imadeit/pipectl/cmd/pipectl/transform"
	"github.com/imadeit/pipectl/cmd/pipectl/upload"
	"github.com/imadeit/pipectl/cmd/pipectl/version"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipectl",
		Short: "pipectl is the command-line tool for running managed ML pipelines on AWS",
		Long: `pipectl is the command-line tool for running managed ML pipelines on AWS.
It stages datasets and job code to S3, runs Glue feature transforms, trains models
on SageMaker and serves them behind pipeline-model endpoints.`,
	}

	cmd.PersistentFlags().StringP("region", "r", "", "The AWS region to operate in; defaults to the manifest's region")
	cmd.PersistentFlags().StringP("profile", "p", "", "The shared AWS config profile to use")
	cmd.PersistentFlags().StringP("bucket", "b", "", "The S3 bucket for pipeline artifacts; overrides the manifest's bucket")
	cmd.PersistentFlags().BoolP("override", "o", false, "whether to override remote files with the same names")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	viper.BindPFlag("region", cmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("profile", cmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("bucket", cmd.PersistentFlags().Lookup("bucket"))
	viper.BindPFlag("override", cmd.PersistentFlags().Lookup("override"))
	viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.AddCommand(run.NewCommand())
	cmd.AddCommand(upload.NewCommand())
	cmd.AddCommand(etl.NewCommand())
	cmd.AddCommand(train.NewCommand())
	cmd.AddCommand(deploy.NewCommand())
	cmd.AddCommand(invoke.NewCommand())
	cmd.AddCommand(transform.NewCommand())
	cmd.AddCommand(get.NewCommand())
	cmd.AddCommand(list.NewCommand())
	cmd.AddCommand(delete.NewCommand())
	cmd.AddCommand(scheduler.NewCommand())
	cmd.AddCommand(version.NewCommand())

	return cmd
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
