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

package get

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/status"
	"github.com/imadeit/pipectl/pkg/util"
)

var runName string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <manifest.yaml>",
		Short: "Get the live state of a run's resources",
		Long: `Get the live state of a run's Glue job run, training job, endpoint and
transform job from the AWS control plane. Resources the run never created
show as N.A.`,
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

			reader := status.NewReader(clients)
			views, err := reader.RunResources(ctx, util.GetETLJobName(p), runName)
			if err != nil {
				return fmt.Errorf("failed to get run %s: %v", runName, err)
			}

			fmt.Printf("run %s:\n", runName)
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Kind", "Name", "State", "Age", "Detail"})
			for _, view := range views {
				table.Append([]string{
					view.Kind,
					view.Name,
					view.State,
					util.GetSinceTime(view.Modified),
					util.FormatNotAvailable(view.Detail),
				})
			}
			table.Render()

			if ttl := p.Spec.TimeToLiveSeconds; ttl != nil {
				fmt.Printf("endpoint time-to-live: %s\n", time.Duration(*ttl)*time.Second)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "the run to show")
	cmd.MarkFlagRequired("run")

	return cmd
}
