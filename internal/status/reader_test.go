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

package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSageMaker struct {
	trainingJob  *sagemaker.DescribeTrainingJobOutput
	endpoint     *sagemaker.DescribeEndpointOutput
	transformJob *sagemaker.DescribeTransformJobOutput
	endpoints    []smtypes.EndpointSummary
	trainingJobs []smtypes.TrainingJobSummary

	listInput *sagemaker.ListEndpointsInput
}

func notFoundErr() error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: "Could not find requested resource",
	}
}

func (f *fakeSageMaker) DescribeTrainingJob(_ context.Context, params *sagemaker.DescribeTrainingJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error) {
	if f.trainingJob == nil {
		return nil, notFoundErr()
	}
	return f.trainingJob, nil
}

func (f *fakeSageMaker) DescribeEndpoint(_ context.Context, params *sagemaker.DescribeEndpointInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error) {
	if f.endpoint == nil {
		return nil, notFoundErr()
	}
	return f.endpoint, nil
}

func (f *fakeSageMaker) DescribeTransformJob(_ context.Context, params *sagemaker.DescribeTransformJobInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error) {
	if f.transformJob == nil {
		return nil, notFoundErr()
	}
	return f.transformJob, nil
}

func (f *fakeSageMaker) ListEndpoints(_ context.Context, params *sagemaker.ListEndpointsInput, _ ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error) {
	f.listInput = params
	return &sagemaker.ListEndpointsOutput{Endpoints: f.endpoints}, nil
}

func (f *fakeSageMaker) ListTrainingJobs(_ context.Context, params *sagemaker.ListTrainingJobsInput, _ ...func(*sagemaker.Options)) (*sagemaker.ListTrainingJobsOutput, error) {
	return &sagemaker.ListTrainingJobsOutput{TrainingJobSummaries: f.trainingJobs}, nil
}

type fakeGlue struct {
	jobRuns []gluetypes.JobRun
	missing bool

	input *glue.GetJobRunsInput
}

func (f *fakeGlue) GetJobRuns(_ context.Context, params *glue.GetJobRunsInput, _ ...func(*glue.Options)) (*glue.GetJobRunsOutput, error) {
	f.input = params
	if f.missing {
		return nil, &gluetypes.EntityNotFoundException{Message: aws.String("job not found")}
	}
	return &glue.GetJobRunsOutput{JobRuns: f.jobRuns}, nil
}

func TestRunResources(t *testing.T) {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	modified := started.Add(10 * time.Minute)

	sm := &fakeSageMaker{
		trainingJob: &sagemaker.DescribeTrainingJobOutput{
			TrainingJobStatus: smtypes.TrainingJobStatusCompleted,
			LastModifiedTime:  &modified,
		},
		endpoint: &sagemaker.DescribeEndpointOutput{
			EndpointStatus:   smtypes.EndpointStatusInService,
			LastModifiedTime: &modified,
		},
		transformJob: &sagemaker.DescribeTransformJobOutput{
			TransformJobStatus: smtypes.TransformJobStatusCompleted,
			TransformEndTime:   &modified,
		},
	}
	glueClient := &fakeGlue{
		jobRuns: []gluetypes.JobRun{
			{JobRunState: gluetypes.JobRunStateSucceeded, StartedOn: &started},
		},
	}

	reader := NewReaderWithClients(sm, glueClient)
	views, err := reader.RunResources(context.Background(), "abalone-etl", "abalone-1a2b3c4d")
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, "glue-job-run", views[0].Kind)
	assert.Equal(t, "abalone-etl", views[0].Name)
	assert.Equal(t, "SUCCEEDED", views[0].State)
	assert.Equal(t, started, views[0].Modified)
	assert.Equal(t, aws.Int32(1), glueClient.input.MaxResults)

	assert.Equal(t, "training-job", views[1].Kind)
	assert.Equal(t, "abalone-1a2b3c4d-train", views[1].Name)
	assert.Equal(t, "Completed", views[1].State)

	assert.Equal(t, "endpoint", views[2].Kind)
	assert.Equal(t, "abalone-1a2b3c4d-endpoint", views[2].Name)
	assert.Equal(t, "InService", views[2].State)

	assert.Equal(t, "transform-job", views[3].Kind)
	assert.Equal(t, "abalone-1a2b3c4d-batch", views[3].Name)
	assert.Equal(t, "Completed", views[3].State)
	assert.Equal(t, modified, views[3].Modified)
}

func TestRunResourcesMissing(t *testing.T) {
	reader := NewReaderWithClients(&fakeSageMaker{}, &fakeGlue{missing: true})

	views, err := reader.RunResources(context.Background(), "abalone-etl", "abalone-1a2b3c4d")
	require.NoError(t, err)
	require.Len(t, views, 4)
	for _, view := range views {
		assert.Equal(t, "N.A.", view.State, "kind %s", view.Kind)
		assert.True(t, view.Modified.IsZero())
	}
}

func TestRunResourcesFailureDetail(t *testing.T) {
	sm := &fakeSageMaker{
		trainingJob: &sagemaker.DescribeTrainingJobOutput{
			TrainingJobStatus: smtypes.TrainingJobStatusFailed,
			FailureReason:     aws.String("AlgorithmError: bad hyperparameters"),
		},
	}
	glueClient := &fakeGlue{
		jobRuns: []gluetypes.JobRun{
			{JobRunState: gluetypes.JobRunStateFailed, ErrorMessage: aws.String("SystemExit: 1")},
		},
	}

	reader := NewReaderWithClients(sm, glueClient)
	views, err := reader.RunResources(context.Background(), "abalone-etl", "abalone-1a2b3c4d")
	require.NoError(t, err)

	assert.Equal(t, "FAILED", views[0].State)
	assert.Equal(t, "SystemExit: 1", views[0].Detail)
	assert.Equal(t, "Failed", views[1].State)
	assert.Equal(t, "AlgorithmError: bad hyperparameters", views[1].Detail)
}

func TestRunResourcesPropagatesErrors(t *testing.T) {
	reader := NewReaderWithClients(&fakeSageMaker{}, &failingGlue{})

	_, err := reader.RunResources(context.Background(), "abalone-etl", "abalone-1a2b3c4d")
	assert.ErrorContains(t, err, "throttled")
}

type failingGlue struct{}

func (f *failingGlue) GetJobRuns(_ context.Context, _ *glue.GetJobRunsInput, _ ...func(*glue.Options)) (*glue.GetJobRunsOutput, error) {
	return nil, errors.New("throttled")
}

func TestListRuns(t *testing.T) {
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	retried := created.Add(time.Hour)
	sm := &fakeSageMaker{
		trainingJobs: []smtypes.TrainingJobSummary{
			{
				TrainingJobName:   aws.String("abalone-1a2b3c4d-train"),
				TrainingJobStatus: smtypes.TrainingJobStatusCompleted,
				CreationTime:      &created,
			},
			// A retried run: the newer attempt wins.
			{
				TrainingJobName:   aws.String("abalone-5e6f7a8b-train"),
				TrainingJobStatus: smtypes.TrainingJobStatusFailed,
				CreationTime:      &created,
			},
			{
				TrainingJobName:   aws.String("abalone-5e6f7a8b-train-r2"),
				TrainingJobStatus: smtypes.TrainingJobStatusInProgress,
				CreationTime:      &retried,
			},
		},
		endpoints: []smtypes.EndpointSummary{
			{
				EndpointName:   aws.String("abalone-1a2b3c4d-endpoint"),
				EndpointStatus: smtypes.EndpointStatusInService,
				CreationTime:   &created,
			},
			// An endpoint whose training job fell off the listing.
			{
				EndpointName:   aws.String("abalone-9c0d1e2f-endpoint"),
				EndpointStatus: smtypes.EndpointStatusCreating,
				CreationTime:   &created,
			},
		},
	}

	reader := NewReaderWithClients(sm, &fakeGlue{})
	runs, err := reader.ListRuns(context.Background(), "abalone")
	require.NoError(t, err)

	assert.Equal(t, aws.String("abalone"), sm.listInput.NameContains)
	require.Len(t, runs, 3)

	assert.Equal(t, "abalone-1a2b3c4d", runs[0].RunName)
	assert.Equal(t, "Completed", runs[0].TrainingState)
	assert.Equal(t, "InService", runs[0].EndpointState)
	assert.Equal(t, created, runs[0].CreationTime)

	assert.Equal(t, "abalone-5e6f7a8b", runs[1].RunName)
	assert.Equal(t, "InProgress", runs[1].TrainingState)
	assert.Empty(t, runs[1].EndpointState)
	assert.Equal(t, retried, runs[1].CreationTime)

	assert.Equal(t, "abalone-9c0d1e2f", runs[2].RunName)
	assert.Empty(t, runs[2].TrainingState)
	assert.Equal(t, "Creating", runs[2].EndpointState)
}
