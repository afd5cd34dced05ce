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

// Package cli carries the helpers shared by the pipectl subcommands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/pkg/util"
)

// LoadPipeline reads a pipeline manifest and applies the region and bucket
// flag overrides on top of it.
func LoadPipeline(path string) (*v1alpha1.Pipeline, error) {
	pipeline, err := v1alpha1.LoadPipelineFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline manifest %s: %v", path, err)
	}
	if region := viper.GetString("region"); region != "" {
		pipeline.Spec.Region = region
	}
	if bucket := viper.GetString("bucket"); bucket != "" {
		pipeline.Spec.Bucket = bucket
	}
	return pipeline, nil
}

// Clients builds the AWS service clients for the pipeline's effective region.
func Clients(ctx context.Context, pipeline *v1alpha1.Pipeline) (*util.Clients, error) {
	region := viper.GetString("region")
	if region == "" {
		region = pipeline.Spec.Region
	}
	clients, err := util.GetClients(ctx, region, viper.GetString("profile"))
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS clients: %v", err)
	}
	return clients, nil
}

// Logger builds the CLI logger from the verbose flag.
func Logger() (*zap.Logger, error) {
	logger, err := util.NewLogger(viper.GetBool("verbose"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %v", err)
	}
	return logger, nil
}

// PrintRunStatus renders the stage table of a run.
func PrintRunStatus(status *v1alpha1.RunStatus) {
	fmt.Printf("run %s: %s\n", status.RunName, status.State)
	if status.Reason != "" {
		fmt.Printf("reason: %s\n", status.Reason)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Stage", "State", "Resource", "Artifact", "Age", "Message"})
	for _, stage := range status.Stages {
		table.Append([]string{
			string(stage.Name),
			string(stage.State),
			util.FormatNotAvailable(stage.Resource),
			util.FormatNotAvailable(stage.Artifact),
			util.GetSinceTime(stage.StartTime),
			util.FormatNotAvailable(stage.Message),
		})
	}
	table.Render()
}
