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

// Package etl runs the serverless Spark feature-transform job on Glue. The
// transform script itself is an external artifact; this engine only manages
// the job definition and its runs.
package etl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/pkg/common"
	"github.com/imadeit/pipectl/pkg/util"
)

type glueAPI interface {
	GetJob(ctx context.Context, params *glue.GetJobInput, optFns ...func(*glue.Options)) (*glue.GetJobOutput, error)
	CreateJob(ctx context.Context, params *glue.CreateJobInput, optFns ...func(*glue.Options)) (*glue.CreateJobOutput, error)
	UpdateJob(ctx context.Context, params *glue.UpdateJobInput, optFns ...func(*glue.Options)) (*glue.UpdateJobOutput, error)
	DeleteJob(ctx context.Context, params *glue.DeleteJobInput, optFns ...func(*glue.Options)) (*glue.DeleteJobOutput, error)
	StartJobRun(ctx context.Context, params *glue.StartJobRunInput, optFns ...func(*glue.Options)) (*glue.StartJobRunOutput, error)
	GetJobRun(ctx context.Context, params *glue.GetJobRunInput, optFns ...func(*glue.Options)) (*glue.GetJobRunOutput, error)
	BatchStopJobRun(ctx context.Context, params *glue.BatchStopJobRunInput, optFns ...func(*glue.Options)) (*glue.BatchStopJobRunOutput, error)
}

// JobConfig is the fully resolved configuration of the Glue job: every
// location is an s3:// URL by the time it reaches the engine.
type JobConfig struct {
	JobName         string
	RoleARN         string
	ScriptLocation  string
	ExtraPyFiles    []string
	ExtraJars       []string
	GlueVersion     string
	WorkerType      string
	NumberOfWorkers int32
	TimeoutMinutes  int32
}

// RunConfig wires the bucket/prefix pairs the transform script reads and
// writes, plus any extra script arguments from the manifest.
type RunConfig struct {
	InputBucket  string
	InputPrefix  string
	OutputBucket string
	OutputPrefix string
	ModelBucket  string
	ModelPrefix  string
	Extra        map[string]string
}

// Engine manages the Glue feature-transform job.
type Engine struct {
	glue         glueAPI
	logger       *zap.Logger
	PollInterval time.Duration
	// PollTimeout bounds how long a job run is waited on. Zero waits
	// until the context is cancelled.
	PollTimeout time.Duration
}

// NewEngine builds an ETL engine around a Glue client.
func NewEngine(client glueAPI, logger *zap.Logger) *Engine {
	return &Engine{
		glue:         client,
		logger:       logger,
		PollInterval: 30 * time.Second,
		PollTimeout:  2 * time.Hour,
	}
}

// EnsureJob creates the Glue job if it does not exist, or updates it so
// that manifest edits take effect on the next run.
func (e *Engine) EnsureJob(ctx context.Context, cfg JobConfig) error {
	command := &gluetypes.JobCommand{
		Name:           aws.String("glueetl"),
		PythonVersion:  aws.String("3"),
		ScriptLocation: aws.String(cfg.ScriptLocation),
	}
	defaultArgs := map[string]string{
		common.GlueArgJobLanguage: "python",
	}
	if len(cfg.ExtraPyFiles) > 0 {
		defaultArgs[common.GlueArgExtraPyFiles] = commaJoin(cfg.ExtraPyFiles)
	}
	if len(cfg.ExtraJars) > 0 {
		defaultArgs[common.GlueArgExtraJars] = commaJoin(cfg.ExtraJars)
	}

	_, err := e.glue.GetJob(ctx, &glue.GetJobInput{JobName: aws.String(cfg.JobName)})
	if err == nil {
		e.logger.Info("updating Glue job", zap.String("job", cfg.JobName))
		_, err = e.glue.UpdateJob(ctx, &glue.UpdateJobInput{
			JobName: aws.String(cfg.JobName),
			JobUpdate: &gluetypes.JobUpdate{
				Role:             aws.String(cfg.RoleARN),
				Command:          command,
				DefaultArguments: defaultArgs,
				GlueVersion:      aws.String(cfg.GlueVersion),
				WorkerType:       gluetypes.WorkerType(cfg.WorkerType),
				NumberOfWorkers:  aws.Int32(cfg.NumberOfWorkers),
				Timeout:          aws.Int32(cfg.TimeoutMinutes),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to update Glue job %s: %w", cfg.JobName, err)
		}
		return nil
	}

	var notFound *gluetypes.EntityNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to look up Glue job %s: %w", cfg.JobName, err)
	}

	e.logger.Info("creating Glue job", zap.String("job", cfg.JobName))
	_, err = e.glue.CreateJob(ctx, &glue.CreateJobInput{
		Name:             aws.String(cfg.JobName),
		Role:             aws.String(cfg.RoleARN),
		Command:          command,
		DefaultArguments: defaultArgs,
		GlueVersion:      aws.String(cfg.GlueVersion),
		WorkerType:       gluetypes.WorkerType(cfg.WorkerType),
		NumberOfWorkers:  aws.Int32(cfg.NumberOfWorkers),
		Timeout:          aws.Int32(cfg.TimeoutMinutes),
	})
	if err != nil {
		return fmt.Errorf("failed to create Glue job %s: %w", cfg.JobName, err)
	}
	return nil
}

// StartRun starts one run of the job and returns the run ID.
func (e *Engine) StartRun(ctx context.Context, jobName string, cfg RunConfig) (string, error) {
	args := map[string]string{
		common.GlueArgInputBucket:  cfg.InputBucket,
		common.GlueArgInputPrefix:  cfg.InputPrefix,
		common.GlueArgOutputBucket: cfg.OutputBucket,
		common.GlueArgOutputPrefix: cfg.OutputPrefix,
		common.GlueArgModelBucket:  cfg.ModelBucket,
		common.GlueArgModelPrefix:  cfg.ModelPrefix,
	}
	for k, v := range cfg.Extra {
		args[k] = v
	}

	out, err := e.glue.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName:   aws.String(jobName),
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start Glue job run for %s: %w", jobName, err)
	}

	runID := aws.ToString(out.JobRunId)
	e.logger.Info("started Glue job run",
		zap.String("job", jobName),
		zap.String("runId", runID))
	return runID, nil
}

// WaitForRun polls the run until it reaches a terminal state and returns an
// error for any outcome other than SUCCEEDED.
func (e *Engine) WaitForRun(ctx context.Context, jobName, runID string) error {
	var last gluetypes.JobRunState
	err := util.PollUntil(ctx, e.PollInterval, e.PollTimeout, func(ctx context.Context) (bool, error) {
		out, err := e.glue.GetJobRun(ctx, &glue.GetJobRunInput{
			JobName: aws.String(jobName),
			RunId:   aws.String(runID),
		})
		if err != nil {
			return false, fmt.Errorf("failed to get Glue job run %s/%s: %w", jobName, runID, err)
		}

		state := out.JobRun.JobRunState
		if state != last {
			e.logger.Info("Glue job run state changed",
				zap.String("job", jobName),
				zap.String("runId", runID),
				zap.String("state", string(state)))
			last = state
		}

		switch state {
		case gluetypes.JobRunStateSucceeded:
			return true, nil
		case gluetypes.JobRunStateFailed, gluetypes.JobRunStateError,
			gluetypes.JobRunStateTimeout, gluetypes.JobRunStateStopped:
			return false, fmt.Errorf("Glue job run %s/%s ended in state %s: %s",
				jobName, runID, state, aws.ToString(out.JobRun.ErrorMessage))
		default:
			return false, nil
		}
	})
	return err
}

// StopRun asks Glue to stop an in-flight run. Used on interrupt.
func (e *Engine) StopRun(ctx context.Context, jobName, runID string) error {
	_, err := e.glue.BatchStopJobRun(ctx, &glue.BatchStopJobRunInput{
		JobName:   aws.String(jobName),
		JobRunIds: []string{runID},
	})
	if err != nil {
		return fmt.Errorf("failed to stop Glue job run %s/%s: %w", jobName, runID, err)
	}
	return nil
}

// DeleteJob removes the job definition. Missing jobs are not an error.
func (e *Engine) DeleteJob(ctx context.Context, jobName string) error {
	_, err := e.glue.DeleteJob(ctx, &glue.DeleteJobInput{JobName: aws.String(jobName)})
	if err != nil {
		var notFound *gluetypes.EntityNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete Glue job %s: %w", jobName, err)
	}
	return nil
}

func commaJoin(items []string) string {
	return strings.Join(items, ",")
}
