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

package list

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/status"
	"github.com/imadeit/pipectl/pkg/util"
)

const (
	TimeLayout = "2006-01-02T15:04:05Z"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <manifest.yaml>",
		Short: "List the pipeline's runs",
		Long: `List the pipeline's runs by their training jobs and endpoints. Runs whose
endpoints were torn down still appear through their training jobs.`,
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
			runs, err := reader.ListRuns(ctx, p.Name)
			if err != nil {
				return fmt.Errorf("failed to list runs of pipeline %s: %v", p.Name, err)
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer writer.Flush()
			fmt.Fprintf(writer, "Run\tTraining\tEndpoint\tCreation Time\n")
			for _, run := range runs {
				var creationTime string
				if !run.CreationTime.IsZero() {
					creationTime = run.CreationTime.Format(TimeLayout)
				}

				fmt.Fprintf(writer,
					"%s\t%s\t%s\t%s\n",
					run.RunName,
					util.FormatNotAvailable(run.TrainingState),
					util.FormatNotAvailable(run.EndpointState),
					creationTime,
				)
			}

			return nil
		},
	}

	return cmd
}
