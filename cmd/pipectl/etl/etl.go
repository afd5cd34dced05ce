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

package etl

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/pipeline"
	"github.com/imadeit/pipectl/pkg/util"
)

var runName string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "etl <manifest.yaml>",
		Short: "Run the Glue feature transform of a pipeline",
		Long: `Stage the pipeline's inputs if needed, ensure the Glue job exists, start a
job run against the run's raw dataset and wait for it to reach a terminal
state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := cli.LoadPipeline(args[0])
			if err != nil {
				return err
			}

			ctx, interrupt := util.NewInterruptHandler(context.Background())
			defer interrupt.Close()

			clients, err := cli.Clients(ctx, p)
			if err != nil {
				return err
			}
			logger, err := cli.Logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if runName == "" {
				runName = util.NewRunName(p.Name)
			}
			fmt.Printf("run name: %s\n", runName)

			runner := pipeline.NewRunner(clients, logger)
			runner.OverrideUploads(viper.GetBool("override"))

			status, err := runner.ExecuteStage(ctx, p, runName, v1alpha1.StageETL)
			cli.PrintRunStatus(status)
			return err
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "the run to transform; generated when empty")

	return cmd
}
