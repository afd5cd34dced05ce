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

package run

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/pipeline"
	"github.com/imadeit/pipectl/pkg/util"
)

var (
	runName       string
	skipTransform bool
	keepEndpoint  bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Run a pipeline end to end",
		Long: `Run a pipeline end to end: stage the dataset and job code to S3, run the
Glue feature transform, train the model, deploy the pipeline-model endpoint
and, when the manifest configures one, run the batch transform.`,
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
			fmt.Printf("starting run %s of pipeline %s\n", runName, p.Name)

			runner := pipeline.NewRunner(clients, logger)
			runner.SkipTransform = skipTransform
			runner.OverrideUploads(viper.GetBool("override"))

			status, err := runner.Execute(ctx, p, runName)
			cli.PrintRunStatus(status)
			if err != nil {
				return fmt.Errorf("run %s failed: %v", runName, err)
			}

			if !keepEndpoint {
				fmt.Printf("tearing down endpoint of run %s\n", runName)
				if err := runner.TeardownServing(ctx, runName); err != nil {
					return fmt.Errorf("failed to tear down run %s: %v", runName, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runName, "name", "", "the run name; generated from the pipeline name when empty")
	cmd.Flags().BoolVar(&skipTransform, "skip-transform", false, "skip the batch transform stage")
	cmd.Flags().BoolVar(&keepEndpoint, "keep-endpoint", true, "keep the endpoint up after the run; pass --keep-endpoint=false to tear it down")

	return cmd
}
