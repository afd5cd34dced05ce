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

package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/pkg/common"
)

// NewRunName derives a unique run name from the pipeline name. All AWS
// resource names of the run are derived from it deterministically, which is
// what lets get/delete recompute them instead of keeping local state.
func NewRunName(pipelineName string) string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%s-%s", pipelineName, suffix)
}

// GetETLJobName returns the Glue job name for the given pipeline. The job
// definition is shared across runs; only job runs are per-run.
func GetETLJobName(pipeline *v1alpha1.Pipeline) string {
	if name := pipeline.Spec.ETL.JobName; name != nil && *name != "" {
		return *name
	}
	return pipeline.Name + common.SuffixETLJob
}

// GetTrainingJobName returns the training job name for a run.
func GetTrainingJobName(runName string) string {
	return runName + common.SuffixTrainingJob
}

// GetModelName returns the pipeline model name for a run.
func GetModelName(runName string) string {
	return runName + common.SuffixModel
}

// GetEndpointConfigName returns the endpoint config name for a run.
func GetEndpointConfigName(runName string) string {
	return runName + common.SuffixEndpointConfig
}

// GetEndpointName returns the endpoint name for a run.
func GetEndpointName(runName string) string {
	return runName + common.SuffixEndpoint
}

// GetTransformJobName returns the batch transform job name for a run.
func GetTransformJobName(runName string) string {
	return runName + common.SuffixTransformJob
}

// GetRunPrefix returns the S3 key prefix all objects of a run live under.
func GetRunPrefix(pipeline *v1alpha1.Pipeline, runName string) string {
	return JoinKey(pipeline.Spec.Prefix, runName)
}

// IsTerminated returns whether the given run reached a terminal state.
func IsTerminated(status *v1alpha1.RunStatus) bool {
	return status.State == v1alpha1.RunStateCompleted ||
		status.State == v1alpha1.RunStateFailed
}

// GetStageStatus returns the status record of the named stage, if present.
func GetStageStatus(status *v1alpha1.RunStatus, name v1alpha1.StageName) *v1alpha1.StageStatus {
	for i := range status.Stages {
		if status.Stages[i].Name == name {
			return &status.Stages[i]
		}
	}
	return nil
}
