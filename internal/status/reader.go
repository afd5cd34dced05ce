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

// Package status reads the live state of a run's resources back from the
// AWS control plane. Resource names are recomputed from the run name, so
// no local state is needed.
package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/smithy-go"

	"github.com/imadeit/pipectl/pkg/common"
	"github.com/imadeit/pipectl/pkg/util"
)

type sageMakerAPI interface {
	DescribeTrainingJob(ctx context.Context, params *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
	DescribeEndpoint(ctx context.Context, params *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	DescribeTransformJob(ctx context.Context, params *sagemaker.DescribeTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error)
	ListEndpoints(ctx context.Context, params *sagemaker.ListEndpointsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error)
	ListTrainingJobs(ctx context.Context, params *sagemaker.ListTrainingJobsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListTrainingJobsOutput, error)
}

type glueAPI interface {
	GetJobRuns(ctx context.Context, params *glue.GetJobRunsInput, optFns ...func(*glue.Options)) (*glue.GetJobRunsOutput, error)
}

// ResourceView is one row of a run's status.
type ResourceView struct {
	Kind     string
	Name     string
	State    string
	Detail   string
	Modified time.Time
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunName       string
	TrainingState string
	EndpointState string
	CreationTime  time.Time
}

// Reader reads run state.
type Reader struct {
	sm   sageMakerAPI
	glue glueAPI
}

// NewReader builds a Reader from shared service clients.
func NewReader(clients *util.Clients) *Reader {
	return &Reader{sm: clients.SageMaker, glue: clients.Glue}
}

// NewReaderWithClients builds a Reader from explicit clients, for tests.
func NewReaderWithClients(sm sageMakerAPI, glueClient glueAPI) *Reader {
	return &Reader{sm: sm, glue: glueClient}
}

// RunResources describes every resource derived from the run name. Missing
// resources are reported with an N.A. state rather than as errors.
func (r *Reader) RunResources(ctx context.Context, etlJobName, runName string) ([]ResourceView, error) {
	var views []ResourceView

	etl := ResourceView{Kind: "glue-job-run", Name: etlJobName, State: "N.A."}
	runs, err := r.glue.GetJobRuns(ctx, &glue.GetJobRunsInput{
		JobName:    aws.String(etlJobName),
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		var notFound *gluetypes.EntityNotFoundException
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else if len(runs.JobRuns) > 0 {
		latest := runs.JobRuns[0]
		etl.State = string(latest.JobRunState)
		etl.Detail = aws.ToString(latest.ErrorMessage)
		if latest.StartedOn != nil {
			etl.Modified = *latest.StartedOn
		}
	}
	views = append(views, etl)

	train := ResourceView{Kind: "training-job", Name: util.GetTrainingJobName(runName), State: "N.A."}
	if out, err := r.sm.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
		TrainingJobName: aws.String(train.Name),
	}); err != nil {
		if !isNotFound(err) {
			return nil, err
		}
	} else {
		train.State = string(out.TrainingJobStatus)
		train.Detail = aws.ToString(out.FailureReason)
		if out.LastModifiedTime != nil {
			train.Modified = *out.LastModifiedTime
		}
	}
	views = append(views, train)

	endpoint := ResourceView{Kind: "endpoint", Name: util.GetEndpointName(runName), State: "N.A."}
	if out, err := r.sm.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(endpoint.Name),
	}); err != nil {
		if !isNotFound(err) {
			return nil, err
		}
	} else {
		endpoint.State = string(out.EndpointStatus)
		endpoint.Detail = aws.ToString(out.FailureReason)
		if out.LastModifiedTime != nil {
			endpoint.Modified = *out.LastModifiedTime
		}
	}
	views = append(views, endpoint)

	batch := ResourceView{Kind: "transform-job", Name: util.GetTransformJobName(runName), State: "N.A."}
	if out, err := r.sm.DescribeTransformJob(ctx, &sagemaker.DescribeTransformJobInput{
		TransformJobName: aws.String(batch.Name),
	}); err != nil {
		if !isNotFound(err) {
			return nil, err
		}
	} else {
		batch.State = string(out.TransformJobStatus)
		batch.Detail = aws.ToString(out.FailureReason)
		if out.TransformEndTime != nil {
			batch.Modified = *out.TransformEndTime
		}
	}
	views = append(views, batch)

	return views, nil
}

// ListRuns lists the pipeline's runs by their training jobs and endpoints,
// which is the closest the control plane has to a run listing. Runs whose
// endpoint was torn down still appear through their training job.
func (r *Reader) ListRuns(ctx context.Context, pipelineName string) ([]RunSummary, error) {
	jobs, err := r.sm.ListTrainingJobs(ctx, &sagemaker.ListTrainingJobsInput{
		NameContains: aws.String(pipelineName),
	})
	if err != nil {
		return nil, err
	}
	endpoints, err := r.sm.ListEndpoints(ctx, &sagemaker.ListEndpointsInput{
		NameContains: aws.String(pipelineName),
	})
	if err != nil {
		return nil, err
	}

	byRun := make(map[string]*RunSummary)
	var order []string
	track := func(runName string) *RunSummary {
		if summary, ok := byRun[runName]; ok {
			return summary
		}
		summary := &RunSummary{RunName: runName}
		byRun[runName] = summary
		order = append(order, runName)
		return summary
	}

	for _, job := range jobs.TrainingJobSummaries {
		name := aws.ToString(job.TrainingJobName)
		idx := strings.Index(name, common.SuffixTrainingJob)
		if idx < 0 {
			continue
		}
		summary := track(name[:idx])
		// Retried jobs share the run name; the newest one wins.
		if job.CreationTime != nil && job.CreationTime.After(summary.CreationTime) {
			summary.CreationTime = *job.CreationTime
			summary.TrainingState = string(job.TrainingJobStatus)
		}
	}

	for _, ep := range endpoints.Endpoints {
		name := aws.ToString(ep.EndpointName)
		summary := track(strings.TrimSuffix(name, common.SuffixEndpoint))
		summary.EndpointState = string(ep.EndpointStatus)
		if summary.CreationTime.IsZero() && ep.CreationTime != nil {
			summary.CreationTime = *ep.CreationTime
		}
	}

	summaries := make([]RunSummary, 0, len(order))
	for _, runName := range order {
		summaries = append(summaries, *byRun[runName])
	}
	return summaries, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException"
}
