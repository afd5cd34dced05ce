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

// Package training starts and tracks the managed gradient-boosting
// training job against the ETL stage's transformed output.
package training

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
	CreateTrainingJob(ctx context.Context, params *sagemaker.CreateTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJob(ctx context.Context, params *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
	StopTrainingJob(ctx context.Context, params *sagemaker.StopTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopTrainingJobOutput, error)
}

// JobConfig is the fully resolved training job configuration.
type JobConfig struct {
	JobName           string
	RoleARN           string
	Image             string
	HyperParameters   map[string]string
	TrainDataURL      string
	ValidationDataURL string
	ContentType       string
	OutputURL         string
	InstanceType      string
	InstanceCount     int32
	VolumeSizeGB      int32
	MaxRuntimeSeconds int64
}

// Engine manages training jobs.
type Engine struct {
	sm           sageMakerAPI
	logger       *zap.Logger
	PollInterval time.Duration
	// PollTimeout bounds how long a job is waited on. Zero waits until
	// the context is cancelled.
	PollTimeout time.Duration
}

// NewEngine builds a training engine around a SageMaker client.
func NewEngine(client sageMakerAPI, logger *zap.Logger) *Engine {
	return &Engine{
		sm:           client,
		logger:       logger,
		PollInterval: 30 * time.Second,
		PollTimeout:  24 * time.Hour,
	}
}

// StartJob creates the training job.
func (e *Engine) StartJob(ctx context.Context, cfg JobConfig) error {
	channels := []smtypes.Channel{
		channel("train", cfg.TrainDataURL, cfg.ContentType),
	}
	if cfg.ValidationDataURL != "" {
		channels = append(channels, channel("validation", cfg.ValidationDataURL, cfg.ContentType))
	}

	_, err := e.sm.CreateTrainingJob(ctx, &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(cfg.JobName),
		RoleArn:         aws.String(cfg.RoleARN),
		AlgorithmSpecification: &smtypes.AlgorithmSpecification{
			TrainingImage:     aws.String(cfg.Image),
			TrainingInputMode: smtypes.TrainingInputModeFile,
		},
		HyperParameters: cfg.HyperParameters,
		InputDataConfig: channels,
		OutputDataConfig: &smtypes.OutputDataConfig{
			S3OutputPath: aws.String(cfg.OutputURL),
		},
		ResourceConfig: &smtypes.ResourceConfig{
			InstanceType:   smtypes.TrainingInstanceType(cfg.InstanceType),
			InstanceCount:  aws.Int32(cfg.InstanceCount),
			VolumeSizeInGB: aws.Int32(cfg.VolumeSizeGB),
		},
		StoppingCondition: &smtypes.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(cfg.MaxRuntimeSeconds)),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create training job %s: %w", cfg.JobName, err)
	}

	e.logger.Info("started training job",
		zap.String("job", cfg.JobName),
		zap.String("image", cfg.Image))
	return nil
}

// WaitForJob polls the training job until it is terminal and returns the
// S3 URL of the model artifact on success.
func (e *Engine) WaitForJob(ctx context.Context, jobName string) (string, error) {
	var artifact string
	var lastSecondary smtypes.SecondaryStatus

	err := util.PollUntil(ctx, e.PollInterval, e.PollTimeout, func(ctx context.Context) (bool, error) {
		out, err := e.sm.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
			TrainingJobName: aws.String(jobName),
		})
		if err != nil {
			return false, fmt.Errorf("failed to describe training job %s: %w", jobName, err)
		}

		if out.SecondaryStatus != lastSecondary {
			e.logger.Info("training job status changed",
				zap.String("job", jobName),
				zap.String("status", string(out.TrainingJobStatus)),
				zap.String("secondaryStatus", string(out.SecondaryStatus)))
			lastSecondary = out.SecondaryStatus
		}

		switch out.TrainingJobStatus {
		case smtypes.TrainingJobStatusCompleted:
			if out.ModelArtifacts != nil {
				artifact = aws.ToString(out.ModelArtifacts.S3ModelArtifacts)
			}
			return true, nil
		case smtypes.TrainingJobStatusFailed:
			return false, fmt.Errorf("training job %s failed: %s", jobName, aws.ToString(out.FailureReason))
		case smtypes.TrainingJobStatusStopped:
			return false, fmt.Errorf("training job %s was stopped", jobName)
		default:
			return false, nil
		}
	})
	if err != nil {
		return "", err
	}
	return artifact, nil
}

// StopJob requests a stop of an in-flight training job. Used on interrupt.
func (e *Engine) StopJob(ctx context.Context, jobName string) error {
	_, err := e.sm.StopTrainingJob(ctx, &sagemaker.StopTrainingJobInput{
		TrainingJobName: aws.String(jobName),
	})
	if err != nil {
		return fmt.Errorf("failed to stop training job %s: %w", jobName, err)
	}
	return nil
}

func channel(name, s3URL, contentType string) smtypes.Channel {
	return smtypes.Channel{
		ChannelName: aws.String(name),
		ContentType: aws.String(contentType),
		DataSource: &smtypes.DataSource{
			S3DataSource: &smtypes.S3DataSource{
				S3DataType:             smtypes.S3DataTypeS3Prefix,
				S3Uri:                  aws.String(s3URL),
				S3DataDistributionType: smtypes.S3DataDistributionFullyReplicated,
			},
		},
	}
}
