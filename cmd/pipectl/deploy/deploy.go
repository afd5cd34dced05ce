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

package deploy

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/pipeline"
	"github.com/imadeit/pipectl/pkg/util"
)

var runName string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <manifest.yaml>",
		Short: "Deploy the run's pipeline model behind a real-time endpoint",
		Long: `Compose the run's SparkML feature transformer and trained model into a
pipeline model, create the endpoint configuration and endpoint, and wait for
the endpoint to come in service. The run's training job must have completed.`,
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

			runner := pipeline.NewRunner(clients, logger)
			status, err := runner.ExecuteStage(ctx, p, runName, v1alpha1.StageDeploy)
			cli.PrintRunStatus(status)
			return err
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "the run whose model to deploy")
	cmd.MarkFlagRequired("run")

	return cmd
}
