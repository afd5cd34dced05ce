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

package invoke

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imadeit/pipectl/cmd/pipectl/cli"
	"github.com/imadeit/pipectl/internal/serving"
	"github.com/imadeit/pipectl/pkg/common"
	"github.com/imadeit/pipectl/pkg/util"
)

var (
	runName     string
	data        string
	dataFile    string
	contentType string
	accept      string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <manifest.yaml>",
		Short: "Invoke the run's real-time endpoint",
		Long: `Send a payload to the run's pipeline-model endpoint and print the response.
The payload comes from --data, --file, or stdin when neither is set.`,
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

			payload, err := readPayload(data, dataFile, os.Stdin)
			if err != nil {
				return err
			}

			endpointName := util.GetEndpointName(runName)
			invoker := serving.NewInvoker(clients.Runtime)
			body, err := invoker.Invoke(ctx, endpointName, payload, contentType, accept)
			if err != nil {
				return fmt.Errorf("failed to invoke endpoint %s: %v", endpointName, err)
			}

			fmt.Println(string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&runName, "run", "", "the run whose endpoint to invoke")
	cmd.MarkFlagRequired("run")
	cmd.Flags().StringVarP(&data, "data", "d", "", "the payload to send")
	cmd.Flags().StringVarP(&dataFile, "file", "f", "", "read the payload from this file, or - for stdin")
	cmd.Flags().StringVar(&contentType, "content-type", common.DefaultContentType, "the payload content type")
	cmd.Flags().StringVar(&accept, "accept", common.DefaultContentType, "the response content type to request")

	return cmd
}

// readPayload resolves the request payload: --data wins, then --file
// ("-" meaning stdin), then whatever is piped on stdin.
func readPayload(data, dataFile string, stdin io.Reader) ([]byte, error) {
	if data != "" {
		return []byte(data), nil
	}
	if dataFile != "" && dataFile != "-" {
		payload, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file %s: %v", dataFile, err)
		}
		return payload, nil
	}

	payload, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload from stdin: %v", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("must pass the payload with --data, --file or on stdin")
	}
	return payload, nil
}
