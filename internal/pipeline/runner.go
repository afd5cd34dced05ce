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

// Package pipeline sequences the pipeline stages of a run: upload, feature
// transform, training, deployment and batch transform. A failed stage
// fails the run; later stages never start.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/internal/etl"
	"github.com/imadeit/pipectl/internal/serving"
	"github.com/imadeit/pipectl/internal/storage"
	"github.com/imadeit/pipectl/internal/training"
	"github.com/imadeit/pipectl/internal/transform"
	"github.com/imadeit/pipectl/pkg/common"
	"github.com/imadeit/pipectl/pkg/util"
)

// Observer receives run lifecycle notifications. The scheduler plugs its
// metrics in through this.
type Observer interface {
	RunStarted()
	RunCompleted(duration time.Duration)
	RunFailed(duration time.Duration)
	StageCompleted(stage v1alpha1.StageName, duration time.Duration)
}

// Runner executes pipeline runs.
type Runner struct {
	uploader  *storage.Uploader
	etl       *etl.Engine
	training  *training.Engine
	serving   *serving.Engine
	transform *transform.Engine
	region    string
	logger    *zap.Logger

	// Observer is optional.
	Observer Observer

	// StatusUpdated is called after every status transition. Optional.
	StatusUpdated func(status *v1alpha1.RunStatus)

	// SkipTransform leaves out the batch transform stage even when the
	// manifest configures one.
	SkipTransform bool
}

// NewRunner wires a Runner from shared service clients.
func NewRunner(clients *util.Clients, logger *zap.Logger) *Runner {
	return &Runner{
		uploader:  storage.NewUploader(clients, logger),
		etl:       etl.NewEngine(clients.Glue, logger),
		training:  training.NewEngine(clients.SageMaker, logger),
		serving:   serving.NewEngine(clients.SageMaker, logger),
		transform: transform.NewEngine(clients.SageMaker, logger),
		region:    clients.Config.Region,
		logger:    logger,
	}
}

// NewRunnerWithEngines wires a Runner from explicit engines, for tests.
func NewRunnerWithEngines(
	uploader *storage.Uploader,
	etlEngine *etl.Engine,
	trainingEngine *training.Engine,
	servingEngine *serving.Engine,
	transformEngine *transform.Engine,
	region string,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		uploader:  uploader,
		etl:       etlEngine,
		training:  trainingEngine,
		serving:   servingEngine,
		transform: transformEngine,
		region:    region,
		logger:    logger,
	}
}

// Execute runs the whole pipeline and returns the final run status. The
// returned status is terminal even when err is non-nil.
func (r *Runner) Execute(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string) (*v1alpha1.RunStatus, error) {
	status := &v1alpha1.RunStatus{
		RunName:        runName,
		State:          v1alpha1.RunStateRunning,
		SubmissionTime: time.Now(),
	}
	r.notify(status)
	if r.Observer != nil {
		r.Observer.RunStarted()
	}

	err := r.execute(ctx, pipeline, runName, status)

	status.TerminationTime = time.Now()
	duration := status.TerminationTime.Sub(status.SubmissionTime)
	if err != nil {
		status.State = v1alpha1.RunStateFailed
		status.Reason = err.Error()
		if r.Observer != nil {
			r.Observer.RunFailed(duration)
		}
	} else {
		status.State = v1alpha1.RunStateCompleted
		if r.Observer != nil {
			r.Observer.RunCompleted(duration)
		}
	}
	r.notify(status)
	return status, err
}

func (r *Runner) execute(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string, status *v1alpha1.RunStatus) error {
	bucket := pipeline.Spec.Bucket
	if bucket == "" {
		var err error
		if bucket, err = r.uploader.DefaultBucket(ctx); err != nil {
			return err
		}
	}
	if err := r.uploader.EnsureBucket(ctx, bucket); err != nil {
		return err
	}

	prefix := util.GetRunPrefix(pipeline, runName)
	locations := newRunLocations(bucket, prefix)

	// Stage 1: upload dataset and job code.
	stage := r.beginStage(status, v1alpha1.StageUpload)
	etlJob, err := r.uploadInputs(ctx, pipeline, locations, stage)
	if err != nil {
		return r.failStage(status, stage, err)
	}
	r.completeStage(status, stage)

	// Stage 2: feature transform on Glue.
	stage = r.beginStage(status, v1alpha1.StageETL)
	if err := r.runETL(ctx, pipeline, etlJob, locations, stage); err != nil {
		return r.failStage(status, stage, err)
	}
	stage.Artifact = util.S3URL(bucket, locations.etlModelPrefix)
	r.completeStage(status, stage)

	// Stage 3: training.
	stage = r.beginStage(status, v1alpha1.StageTraining)
	modelArtifact, err := r.runTraining(ctx, pipeline, runName, locations, stage, status)
	if err != nil {
		return r.failStage(status, stage, err)
	}
	stage.Artifact = modelArtifact
	r.completeStage(status, stage)

	// Stage 4: pipeline model + endpoint.
	stage = r.beginStage(status, v1alpha1.StageDeploy)
	if err := r.runDeploy(ctx, pipeline, runName, locations, modelArtifact, stage); err != nil {
		return r.failStage(status, stage, err)
	}
	r.completeStage(status, stage)

	// Stage 5: batch transform.
	if pipeline.Spec.Transform == nil || r.SkipTransform {
		skipped := r.beginStage(status, v1alpha1.StageTransform)
		skipped.State = v1alpha1.StageSkipped
		r.notify(status)
		return nil
	}
	stage = r.beginStage(status, v1alpha1.StageTransform)
	if err := r.runTransform(ctx, pipeline, runName, locations, stage); err != nil {
		return r.failStage(status, stage, err)
	}
	stage.Artifact = util.S3URL(bucket, locations.batchOutputPrefix)
	r.completeStage(status, stage)

	return nil
}

// OverrideUploads makes the upload stage replace remote files that already
// exist instead of skipping them.
func (r *Runner) OverrideUploads(override bool) {
	r.uploader.Override = override
}

// ExecuteStage runs a single stage of an existing run. Stages before the
// requested one must have completed already; their outputs are located by
// name under the run prefix. Upload resolution is idempotent, so rerunning
// an earlier stage does not re-upload unchanged objects.
func (r *Runner) ExecuteStage(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string, name v1alpha1.StageName) (*v1alpha1.RunStatus, error) {
	status := &v1alpha1.RunStatus{
		RunName:        runName,
		State:          v1alpha1.RunStateRunning,
		SubmissionTime: time.Now(),
	}

	err := r.executeStage(ctx, pipeline, runName, name, status)

	status.TerminationTime = time.Now()
	if err != nil {
		status.State = v1alpha1.RunStateFailed
		status.Reason = err.Error()
	} else {
		status.State = v1alpha1.RunStateCompleted
	}
	return status, err
}

func (r *Runner) executeStage(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string, name v1alpha1.StageName, status *v1alpha1.RunStatus) error {
	bucket := pipeline.Spec.Bucket
	if bucket == "" {
		var err error
		if bucket, err = r.uploader.DefaultBucket(ctx); err != nil {
			return err
		}
	}
	if err := r.uploader.EnsureBucket(ctx, bucket); err != nil {
		return err
	}
	locations := newRunLocations(bucket, util.GetRunPrefix(pipeline, runName))

	stage := r.beginStage(status, name)
	switch name {
	case v1alpha1.StageUpload:
		if _, err := r.uploadInputs(ctx, pipeline, locations, stage); err != nil {
			return r.failStage(status, stage, err)
		}
	case v1alpha1.StageETL:
		etlJob, err := r.uploadInputs(ctx, pipeline, locations, stage)
		if err != nil {
			return r.failStage(status, stage, err)
		}
		if err := r.runETL(ctx, pipeline, etlJob, locations, stage); err != nil {
			return r.failStage(status, stage, err)
		}
		stage.Artifact = util.S3URL(bucket, locations.etlModelPrefix)
	case v1alpha1.StageTraining:
		artifact, err := r.runTraining(ctx, pipeline, runName, locations, stage, status)
		if err != nil {
			return r.failStage(status, stage, err)
		}
		stage.Artifact = artifact
	case v1alpha1.StageDeploy:
		// The model artifact comes from the run's training job, which must
		// already be terminal. WaitForJob returns right away in that case.
		artifact, err := r.training.WaitForJob(ctx, util.GetTrainingJobName(runName))
		if err != nil {
			return r.failStage(status, stage, err)
		}
		if err := r.runDeploy(ctx, pipeline, runName, locations, artifact, stage); err != nil {
			return r.failStage(status, stage, err)
		}
	case v1alpha1.StageTransform:
		if pipeline.Spec.Transform == nil {
			return r.failStage(status, stage, fmt.Errorf("manifest has no transform section"))
		}
		if err := r.runTransform(ctx, pipeline, runName, locations, stage); err != nil {
			return r.failStage(status, stage, err)
		}
		stage.Artifact = util.S3URL(bucket, locations.batchOutputPrefix)
	default:
		return r.failStage(status, stage, fmt.Errorf("unknown stage %q", name))
	}
	r.completeStage(status, stage)
	return nil
}

// runLocations fixes the S3 layout of one run.
type runLocations struct {
	bucket            string
	prefix            string
	inputPrefix       string
	codePrefix        string
	etlOutputPrefix   string
	etlModelPrefix    string
	trainingPrefix    string
	batchInputPrefix  string
	batchOutputPrefix string
}

func newRunLocations(bucket, prefix string) runLocations {
	return runLocations{
		bucket:            bucket,
		prefix:            prefix,
		inputPrefix:       util.JoinKey(prefix, common.KeyPrefixInput),
		codePrefix:        util.JoinKey(prefix, common.KeyPrefixCode),
		etlOutputPrefix:   util.JoinKey(prefix, common.KeyPrefixETLOutput),
		etlModelPrefix:    util.JoinKey(prefix, common.KeyPrefixETLModel),
		trainingPrefix:    util.JoinKey(prefix, common.KeyPrefixTraining),
		batchInputPrefix:  util.JoinKey(prefix, common.KeyPrefixBatchIn),
		batchOutputPrefix: util.JoinKey(prefix, common.KeyPrefixBatchOut),
	}
}

func (r *Runner) uploadInputs(ctx context.Context, pipeline *v1alpha1.Pipeline, loc runLocations, stage *v1alpha1.StageStatus) (etl.JobConfig, error) {
	datasetURL, err := r.uploader.Resolve(ctx, pipeline.Spec.Dataset, loc.bucket, loc.inputPrefix)
	if err != nil {
		return etl.JobConfig{}, fmt.Errorf("failed to stage dataset: %w", err)
	}
	stage.Artifact = datasetURL

	scriptURL, err := r.uploader.Resolve(ctx, pipeline.Spec.ETL.ScriptLocation, loc.bucket, loc.codePrefix)
	if err != nil {
		return etl.JobConfig{}, fmt.Errorf("failed to stage ETL script: %w", err)
	}
	pyFiles, err := r.uploader.ResolveAll(ctx, pipeline.Spec.ETL.ExtraPyFiles, loc.bucket, loc.codePrefix)
	if err != nil {
		return etl.JobConfig{}, fmt.Errorf("failed to stage ETL python dependencies: %w", err)
	}
	jars, err := r.uploader.ResolveAll(ctx, pipeline.Spec.ETL.ExtraJars, loc.bucket, loc.codePrefix)
	if err != nil {
		return etl.JobConfig{}, fmt.Errorf("failed to stage ETL jars: %w", err)
	}

	return etl.JobConfig{
		JobName:         util.GetETLJobName(pipeline),
		RoleARN:         pipeline.Spec.RoleARN,
		ScriptLocation:  scriptURL,
		ExtraPyFiles:    pyFiles,
		ExtraJars:       jars,
		GlueVersion:     pipeline.Spec.ETL.GlueVersion,
		WorkerType:      pipeline.Spec.ETL.WorkerType,
		NumberOfWorkers: *pipeline.Spec.ETL.NumberOfWorkers,
		TimeoutMinutes:  *pipeline.Spec.ETL.TimeoutMinutes,
	}, nil
}

func (r *Runner) runETL(ctx context.Context, pipeline *v1alpha1.Pipeline, job etl.JobConfig, loc runLocations, stage *v1alpha1.StageStatus) error {
	if err := r.etl.EnsureJob(ctx, job); err != nil {
		return err
	}

	runCfg := etl.RunConfig{
		InputBucket:  loc.bucket,
		InputPrefix:  loc.inputPrefix,
		OutputBucket: loc.bucket,
		OutputPrefix: loc.etlOutputPrefix,
		ModelBucket:  loc.bucket,
		ModelPrefix:  loc.etlModelPrefix,
		Extra:        pipeline.Spec.ETL.Arguments,
	}

	return r.withRetries(ctx, pipeline, func(ctx context.Context, attempt int32) error {
		runID, err := r.etl.StartRun(ctx, job.JobName, runCfg)
		if err != nil {
			return err
		}
		stage.Resource = runID
		err = r.etl.WaitForRun(ctx, job.JobName, runID)
		if err != nil && ctx.Err() != nil {
			r.stopOnInterrupt(func(stopCtx context.Context) error {
				return r.etl.StopRun(stopCtx, job.JobName, runID)
			})
		}
		return err
	})
}

func (r *Runner) runTraining(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string, loc runLocations, stage *v1alpha1.StageStatus, status *v1alpha1.RunStatus) (string, error) {
	image, err := r.trainingImage(pipeline)
	if err != nil {
		return "", err
	}

	var artifact string
	err = r.withRetries(ctx, pipeline, func(ctx context.Context, attempt int32) error {
		jobName := util.GetTrainingJobName(runName)
		if attempt > 1 {
			// Training job names must be unique per account.
			jobName = fmt.Sprintf("%s-r%d", jobName, attempt)
		}
		status.ExecutionAttempts++

		cfg := training.JobConfig{
			JobName:           jobName,
			RoleARN:           pipeline.Spec.RoleARN,
			Image:             image,
			HyperParameters:   pipeline.Spec.Training.HyperParameters,
			TrainDataURL:      util.S3URL(loc.bucket, loc.etlOutputPrefix, pipeline.Spec.Training.TrainChannel),
			ValidationDataURL: util.S3URL(loc.bucket, loc.etlOutputPrefix, pipeline.Spec.Training.ValidationChannel),
			ContentType:       pipeline.Spec.Training.ContentType,
			OutputURL:         util.S3URL(loc.bucket, loc.trainingPrefix),
			InstanceType:      pipeline.Spec.Training.InstanceType,
			InstanceCount:     *pipeline.Spec.Training.InstanceCount,
			VolumeSizeGB:      *pipeline.Spec.Training.VolumeSizeGB,
			MaxRuntimeSeconds: *pipeline.Spec.Training.MaxRuntimeSeconds,
		}
		if err := r.training.StartJob(ctx, cfg); err != nil {
			return err
		}
		stage.Resource = jobName

		artifact, err = r.training.WaitForJob(ctx, jobName)
		if err != nil && ctx.Err() != nil {
			r.stopOnInterrupt(func(stopCtx context.Context) error {
				return r.training.StopJob(stopCtx, jobName)
			})
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return artifact, nil
}

func (r *Runner) runDeploy(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string, loc runLocations, modelArtifact string, stage *v1alpha1.StageStatus) error {
	transformerImage, err := r.transformerImage(pipeline)
	if err != nil {
		return err
	}
	trainingImage, err := r.trainingImage(pipeline)
	if err != nil {
		return err
	}

	modelName := util.GetModelName(runName)
	if err := r.serving.CreatePipelineModel(ctx, serving.ModelConfig{
		ModelName:           modelName,
		RoleARN:             pipeline.Spec.RoleARN,
		TransformerImage:    transformerImage,
		TransformerArtifact: util.S3URL(loc.bucket, loc.etlModelPrefix, "model.tar.gz"),
		Schema:              pipeline.Spec.Serving.Schema,
		ModelImage:          trainingImage,
		ModelArtifact:       modelArtifact,
	}); err != nil {
		return err
	}

	endpointName := util.GetEndpointName(runName)
	if err := r.serving.Deploy(ctx, serving.EndpointConfig{
		EndpointName:         endpointName,
		EndpointConfigName:   util.GetEndpointConfigName(runName),
		ModelName:            modelName,
		VariantName:          pipeline.Spec.Serving.VariantName,
		InstanceType:         pipeline.Spec.Serving.InstanceType,
		InitialInstanceCount: *pipeline.Spec.Serving.InitialInstanceCount,
	}); err != nil {
		return err
	}

	stage.Resource = endpointName
	return r.serving.WaitForEndpoint(ctx, endpointName)
}

func (r *Runner) runTransform(ctx context.Context, pipeline *v1alpha1.Pipeline, runName string, loc runLocations, stage *v1alpha1.StageStatus) error {
	spec := pipeline.Spec.Transform

	inputURL, err := r.uploader.Resolve(ctx, spec.Input, loc.bucket, loc.batchInputPrefix)
	if err != nil {
		return fmt.Errorf("failed to stage batch input: %w", err)
	}

	jobName := util.GetTransformJobName(runName)
	cfg := transform.JobConfig{
		JobName:       jobName,
		ModelName:     util.GetModelName(runName),
		InputURL:      inputURL,
		OutputURL:     util.S3URL(loc.bucket, loc.batchOutputPrefix),
		ContentType:   spec.ContentType,
		SplitType:     spec.SplitType,
		AssembleWith:  spec.AssembleWith,
		Accept:        spec.Accept,
		InstanceType:  spec.InstanceType,
		InstanceCount: *spec.InstanceCount,
	}
	if err := r.transform.StartJob(ctx, cfg); err != nil {
		return err
	}
	stage.Resource = jobName

	return r.transform.WaitForJob(ctx, jobName)
}

// stopOnInterrupt best-effort stops an in-flight managed job after the run
// context was cancelled, so an interrupted run does not keep billing.
func (r *Runner) stopOnInterrupt(stop func(ctx context.Context) error) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stop(stopCtx); err != nil {
		r.logger.Warn("failed to stop interrupted job", zap.Error(err))
	}
}

// withRetries applies the manifest's restart policy to a retryable stage.
func (r *Runner) withRetries(ctx context.Context, pipeline *v1alpha1.Pipeline, fn func(ctx context.Context, attempt int32) error) error {
	policy := pipeline.Spec.RestartPolicy
	attempts := int32(1)
	if policy.Type == v1alpha1.RestartPolicyOnFailure && policy.OnFailureRetries != nil {
		attempts += *policy.OnFailureRetries
	}

	var err error
	for attempt := int32(1); attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}

		interval := 5 * time.Second
		if policy.OnFailureRetryInterval != nil {
			interval = time.Duration(*policy.OnFailureRetryInterval) * time.Second
		}
		r.logger.Warn("stage attempt failed, retrying",
			zap.Int32("attempt", attempt),
			zap.Duration("retryIn", interval),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return err
		case <-time.After(interval):
		}
	}
	return err
}

func (r *Runner) trainingImage(pipeline *v1alpha1.Pipeline) (string, error) {
	if img := pipeline.Spec.Training.Image; img != nil && *img != "" {
		return *img, nil
	}
	return common.XGBoostImage(r.region)
}

func (r *Runner) transformerImage(pipeline *v1alpha1.Pipeline) (string, error) {
	if img := pipeline.Spec.Serving.SparkMLImage; img != nil && *img != "" {
		return *img, nil
	}
	return common.SparkMLServingImage(r.region)
}

func (r *Runner) beginStage(status *v1alpha1.RunStatus, name v1alpha1.StageName) *v1alpha1.StageStatus {
	status.Stages = append(status.Stages, v1alpha1.StageStatus{
		Name:      name,
		State:     v1alpha1.StageRunning,
		StartTime: time.Now(),
	})
	stage := &status.Stages[len(status.Stages)-1]
	r.logger.Info("stage started", zap.String("stage", string(name)))
	r.notify(status)
	return stage
}

func (r *Runner) completeStage(status *v1alpha1.RunStatus, stage *v1alpha1.StageStatus) {
	stage.State = v1alpha1.StageCompleted
	stage.CompletionTime = time.Now()
	duration := stage.CompletionTime.Sub(stage.StartTime)
	r.logger.Info("stage completed",
		zap.String("stage", string(stage.Name)),
		zap.Duration("duration", duration))
	if r.Observer != nil {
		r.Observer.StageCompleted(stage.Name, duration)
	}
	r.notify(status)
}

func (r *Runner) failStage(status *v1alpha1.RunStatus, stage *v1alpha1.StageStatus, err error) error {
	stage.State = v1alpha1.StageFailed
	stage.CompletionTime = time.Now()
	stage.Message = err.Error()
	r.logger.Error("stage failed",
		zap.String("stage", string(stage.Name)),
		zap.Error(err))
	r.notify(status)
	return fmt.Errorf("stage %s failed: %w", stage.Name, err)
}

// TeardownServing deletes the run's endpoint, endpoint config and model.
// Used by `run --keep-endpoint=false` to not leave a billed endpoint behind.
func (r *Runner) TeardownServing(ctx context.Context, runName string) error {
	return r.serving.Teardown(ctx,
		util.GetEndpointName(runName),
		util.GetEndpointConfigName(runName),
		util.GetModelName(runName))
}

func (r *Runner) notify(status *v1alpha1.RunStatus) {
	if status == nil || r.StatusUpdated == nil {
		return
	}
	r.StatusUpdated(status)
}
