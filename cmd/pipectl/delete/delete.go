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

package delete

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/etl"
	"github.com/imadeit/pipectl/internal/serving"
	"github.com/imadeit/pipectl/pkg/util"
)

var (
	runName      string
	deleteETLJob bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <manifest.yaml>",
		Short: "Tear down a run's serving resources",
		Long: `Tear down the run's endpoint, endpoint configuration and pipeline model.
Resources that are already gone are skipped. Pass --etl-job to also delete
the pipeline's Glue job definition.`,
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

			servingEngine := serving.NewEngine(clients.SageMaker, logger)
			if err := servingEngine.Teardown(
				ctx,
				util.GetEndpointName(runName),
				util.GetEndpointConfigName(runName),
				util.GetModelName(runName),
			); err != nil {
				return fmt.Errorf("failed to tear down run %s: %v", runName, err)
			}
			fmt.Printf("run %s torn down\n", runName)

			if deleteETLJob {
				jobName := util.GetETLJobName(p)
				etlEngine := etl.NewEngine(clients.Glue, logger)
				if err := etlEngine.DeleteJob(ctx, jobName); err != nil {
					return fmt.Errorf("failed to delete Glue job %s: %v", jobName, err)
				}
				fmt.Printf("Glue job %s deleted\n", jobName)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "the run to tear down")
	cmd.MarkFlagRequired("run")
	cmd.Flags().BoolVar(&deleteETLJob, "etl-job", false, "also delete the pipeline's Glue job definition")

	return cmd
}
