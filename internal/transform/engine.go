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

// Package transform runs the equivalent of the real-time pipeline as a
// batch transform job over a static input file.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/pkg/util"
)

type sageMakerAPI interface {
	CreateTransformJob(ctx context.Context, params *sagemaker.CreateTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTransformJobOutput, error)
	DescribeTransformJob(ctx context.Context, params *sagemaker.DescribeTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error)
	StopTransformJob(ctx context.Context, params *sagemaker.StopTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopTransformJobOutput, error)
}

// JobConfig is the fully resolved batch transform configuration.
type JobConfig struct {
	JobName       string
	ModelName     string
	InputURL      string
	OutputURL     string
	ContentType   string
	SplitType     string
	AssembleWith  string
	Accept        string
	InstanceType  string
	InstanceCount int32
}

// Engine manages batch transform jobs.
type Engine struct {
	sm           sageMakerAPI
	logger       *zap.Logger
	PollInterval time.Duration
	// PollTimeout bounds how long a job is waited on. Zero waits until
	// the context is cancelled.
	PollTimeout time.Duration
}

// NewEngine builds a transform engine around a SageMaker client.
func NewEngine(client sageMakerAPI, logger *zap.Logger) *Engine {
	return &Engine{
		sm:           client,
		logger:       logger,
		PollInterval: 30 * time.Second,
		PollTimeout:  2 * time.Hour,
	}
}

// StartJob creates the transform job against the pipeline model.
func (e *Engine) StartJob(ctx context.Context, cfg JobConfig) error {
	_, err := e.sm.CreateTransformJob(ctx, &sagemaker.CreateTransformJobInput{
		TransformJobName: aws.String(cfg.JobName),
		ModelName:        aws.String(cfg.ModelName),
		TransformInput: &smtypes.TransformInput{
			DataSource: &smtypes.TransformDataSource{
				S3DataSource: &smtypes.TransformS3DataSource{
					S3DataType: smtypes.S3DataTypeS3Prefix,
					S3Uri:      aws.String(cfg.InputURL),
				},
			},
			ContentType: aws.String(cfg.ContentType),
			SplitType:   smtypes.SplitType(cfg.SplitType),
		},
		TransformOutput: &smtypes.TransformOutput{
			S3OutputPath: aws.String(cfg.OutputURL),
			AssembleWith: smtypes.AssemblyType(cfg.AssembleWith),
			Accept:       aws.String(cfg.Accept),
		},
		TransformResources: &smtypes.TransformResources{
			InstanceType:  smtypes.TransformInstanceType(cfg.InstanceType),
			InstanceCount: aws.Int32(cfg.InstanceCount),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create transform job %s: %w", cfg.JobName, err)
	}

	e.logger.Info("started transform job",
		zap.String("job", cfg.JobName),
		zap.String("input", cfg.InputURL))
	return nil
}

// WaitForJob polls the transform job until it is terminal.
func (e *Engine) WaitForJob(ctx context.Context, jobName string) error {
	var last smtypes.TransformJobStatus
	return util.PollUntil(ctx, e.PollInterval, e.PollTimeout, func(ctx context.Context) (bool, error) {
		out, err := e.sm.DescribeTransformJob(ctx, &sagemaker.DescribeTransformJobInput{
			TransformJobName: aws.String(jobName),
		})
		if err != nil {
			return false, fmt.Errorf("failed to describe transform job %s: %w", jobName, err)
		}

		if out.TransformJobStatus != last {
			e.logger.Info("transform job status changed",
				zap.String("job", jobName),
				zap.String("status", string(out.TransformJobStatus)))
			last = out.TransformJobStatus
		}

		switch out.TransformJobStatus {
		case smtypes.TransformJobStatusCompleted:
			return true, nil
		case smtypes.TransformJobStatusFailed:
			return false, fmt.Errorf("transform job %s failed: %s", jobName, aws.ToString(out.FailureReason))
		case smtypes.TransformJobStatusStopped:
			return false, fmt.Errorf("transform job %s was stopped", jobName)
		default:
			return false, nil
		}
	})
}

// StopJob requests a stop of an in-flight transform job. Used on interrupt.
func (e *Engine) StopJob(ctx context.Context, jobName string) error {
	_, err := e.sm.StopTransformJob(ctx, &sagemaker.StopTransformJobInput{
		TransformJobName: aws.String(jobName),
	})
	if err != nil {
		return fmt.Errorf("failed to stop transform job %s: %w", jobName, err)
	}
	return nil
}
