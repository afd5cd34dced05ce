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

package scheduler

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/metrics"
	"github.com/imadeit/pipectl/internal/pipeline"
	"github.com/imadeit/pipectl/internal/scheduler"
	"github.com/imadeit/pipectl/pkg/util"
)

var (
	metricsBindAddress string
	metricsEndpoint    string
	metricsPrefix      string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler <manifest.yaml>",
		Short: "Run a pipeline on its cron schedule",
		Long: `Run a pipeline on the manifest's cron schedule until interrupted. Overlapping
runs are admitted per the manifest's concurrency policy. Run metrics are
served on the metrics endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := cli.LoadPipeline(args[0])
			if err != nil {
				return err
			}
			if p.Spec.Schedule == nil {
				return fmt.Errorf("pipeline %s has no schedule", p.Name)
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

			runMetrics := metrics.NewPipelineRunMetrics(metricsPrefix, []string{"pipeline_name"}, logger)
			registry := prometheus.NewRegistry()
			runMetrics.Register(registry)
			metrics.StartServer(ctx, metricsBindAddress, metricsEndpoint, registry, logger)

			runner := pipeline.NewRunner(clients, logger)
			runner.OverrideUploads(viper.GetBool("override"))
			runner.Observer = runMetrics.ForPipeline(p.Name)

			sched, err := scheduler.New(p, runner, logger)
			if err != nil {
				return fmt.Errorf("failed to create scheduler for pipeline %s: %v", p.Name, err)
			}

			fmt.Printf("scheduling pipeline %s on %q\n", p.Name, p.Spec.Schedule.Schedule)
			return sched.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsBindAddress, "metrics-bind-address", ":8080", "the address the metrics server listens on")
	cmd.Flags().StringVar(&metricsEndpoint, "metrics-endpoint", "/metrics", "the path metrics are served on")
	cmd.Flags().StringVar(&metricsPrefix, "metrics-prefix", "", "the prefix prepended to the run metric names")

	return cmd
}
