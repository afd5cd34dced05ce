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

package v1alpha1

import "time"

// Pipeline describes a two-stage inference pipeline: a Spark feature
// transformer fitted by a Glue job, a gradient-boosting model trained on the
// transformed data, and the composition of both served behind a real-time
// endpoint and a batch transform job.
type Pipeline struct {
	APIVersion string `json:"apiVersion,omitempty"`
	Kind       string `json:"kind,omitempty"`

	// Name is the base name for every AWS resource a run creates.
	Name string `json:"name"`

	Spec   PipelineSpec `json:"spec"`
	Status RunStatus    `json:"status,omitempty"`
}

// PipelineSpec is the desired shape of a pipeline run.
type PipelineSpec struct {
	// Region is the AWS region all services are invoked in.
	Region string `json:"region,omitempty"`

	// RoleARN is the IAM role passed to Glue and SageMaker. Required.
	RoleARN string `json:"roleArn"`

	// Bucket holds datasets, job code and artifacts. Defaults to the
	// account's sagemaker-<region>-<account> bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the key prefix under which run objects are placed.
	Prefix string `json:"prefix,omitempty"`

	// Dataset is the raw input dataset, a local path or an s3:// URL.
	Dataset string `json:"dataset"`

	ETL       GlueJobSpec    `json:"etl"`
	Training  TrainingSpec   `json:"training"`
	Serving   ServingSpec    `json:"serving"`
	Transform *TransformSpec `json:"transform,omitempty"`

	// Schedule makes the pipeline eligible for the scheduler subcommand.
	Schedule *ScheduleSpec `json:"schedule,omitempty"`

	// RestartPolicy applies to the ETL and training stages.
	RestartPolicy RestartPolicy `json:"restartPolicy,omitempty"`

	// TimeToLiveSeconds bounds how long a deployed endpoint is expected to
	// live before `pipectl delete` is due. Informational, surfaced by get.
	TimeToLiveSeconds *int64 `json:"timeToLiveSeconds,omitempty"`
}

// GlueJobSpec configures the serverless Spark feature-transform job.
type GlueJobSpec struct {
	// JobName overrides the derived Glue job name.
	// +optional
	JobName *string `json:"jobName,omitempty"`

	// ScriptLocation is the ETL script, a local path or an s3:// URL.
	// Local scripts are uploaded under the run's code prefix.
	ScriptLocation string `json:"scriptLocation"`

	// ExtraPyFiles and ExtraJars are the job's --extra-py-files and
	// --extra-jars dependencies, local paths or s3:// URLs.
	// +optional
	ExtraPyFiles []string `json:"extraPyFiles,omitempty"`
	// +optional
	ExtraJars []string `json:"extraJars,omitempty"`

	// GlueVersion selects the Glue runtime. Defaults to "4.0".
	// +optional
	GlueVersion string `json:"glueVersion,omitempty"`

	// WorkerType is the Glue worker type, for example G.1X.
	// +optional
	WorkerType string `json:"workerType,omitempty"`

	// NumberOfWorkers defaults to 5.
	// +optional
	NumberOfWorkers *int32 `json:"numberOfWorkers,omitempty"`

	// TimeoutMinutes caps the job run. Defaults to 60.
	// +optional
	TimeoutMinutes *int32 `json:"timeoutMinutes,omitempty"`

	// Arguments are extra job arguments passed through to StartJobRun.
	// +optional
	Arguments map[string]string `json:"arguments,omitempty"`
}

// TrainingSpec configures the managed training job.
type TrainingSpec struct {
	// Algorithm names the built-in algorithm. Only "xgboost" is resolved
	// from the image registry; set Image to use anything else.
	// +optional
	Algorithm string `json:"algorithm,omitempty"`

	// Image overrides the resolved training container image.
	// +optional
	Image *string `json:"image,omitempty"`

	// HyperParameters are passed to the training job verbatim.
	// +optional
	HyperParameters map[string]string `json:"hyperParameters,omitempty"`

	// InstanceType defaults to ml.m5.xlarge.
	// +optional
	InstanceType string `json:"instanceType,omitempty"`

	// InstanceCount defaults to 1.
	// +optional
	InstanceCount *int32 `json:"instanceCount,omitempty"`

	// VolumeSizeGB defaults to 20.
	// +optional
	VolumeSizeGB *int32 `json:"volumeSizeGB,omitempty"`

	// MaxRuntimeSeconds defaults to 86400.
	// +optional
	MaxRuntimeSeconds *int64 `json:"maxRuntimeSeconds,omitempty"`

	// ContentType of the transformed channel data. Defaults to text/csv.
	// +optional
	ContentType string `json:"contentType,omitempty"`

	// TrainChannel and ValidationChannel are the key prefixes, relative to
	// the ETL output prefix, holding the transformed channel data.
	// +optional
	TrainChannel string `json:"trainChannel,omitempty"`
	// +optional
	ValidationChannel string `json:"validationChannel,omitempty"`
}

// SchemaColumn is one column of the SparkML serving schema.
type SchemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Struct distinguishes scalar columns from vector/array ones.
	// +optional
	Struct string `json:"struct,omitempty"`
}

// SparkMLSchema is serialized into the SAGEMAKER_SPARKML_SCHEMA environment
// variable of the feature-transformer container.
type SparkMLSchema struct {
	Input  []SchemaColumn `json:"input"`
	Output SchemaColumn   `json:"output"`
}

// ServingSpec configures the real-time endpoint for the pipeline model.
type ServingSpec struct {
	// Schema describes the raw request columns and the transformed output
	// column handed to the model container.
	Schema *SparkMLSchema `json:"schema,omitempty"`

	// SparkMLImage overrides the resolved feature-transformer serving image.
	// +optional
	SparkMLImage *string `json:"sparkMLImage,omitempty"`

	// InstanceType defaults to ml.c4.xlarge.
	// +optional
	InstanceType string `json:"instanceType,omitempty"`

	// InitialInstanceCount defaults to 1.
	// +optional
	InitialInstanceCount *int32 `json:"initialInstanceCount,omitempty"`

	// VariantName defaults to AllTraffic.
	// +optional
	VariantName string `json:"variantName,omitempty"`
}

// TransformSpec configures the batch transform job over a static input.
type TransformSpec struct {
	// Input is the batch input, a local file, an s3:// URL, or a key prefix
	// relative to the run's input prefix.
	Input string `json:"input"`

	// ContentType defaults to text/csv.
	// +optional
	ContentType string `json:"contentType,omitempty"`

	// SplitType defaults to Line.
	// +optional
	SplitType string `json:"splitType,omitempty"`

	// AssembleWith defaults to Line.
	// +optional
	AssembleWith string `json:"assembleWith,omitempty"`

	// Accept defaults to text/csv.
	// +optional
	Accept string `json:"accept,omitempty"`

	// InstanceType defaults to ml.m5.xlarge.
	// +optional
	InstanceType string `json:"instanceType,omitempty"`

	// InstanceCount defaults to 1.
	// +optional
	InstanceCount *int32 `json:"instanceCount,omitempty"`
}

// ScheduleSpec configures recurring runs driven by the scheduler subcommand.
type ScheduleSpec struct {
	// Schedule is a standard cron expression.
	Schedule string `json:"schedule"`

	// TimeZone interprets the schedule. Defaults to Local.
	// +optional
	TimeZone string `json:"timeZone,omitempty"`

	// ConcurrencyPolicy decides what happens when a run is still in flight
	// at the next tick.
	// +optional
	ConcurrencyPolicy ConcurrencyPolicy `json:"concurrencyPolicy,omitempty"`

	// Suspend stops new runs from being started without dropping history.
	// +optional
	Suspend *bool `json:"suspend,omitempty"`
}

// ConcurrencyPolicy is the policy governing overlapping scheduled runs.
type ConcurrencyPolicy string

const (
	// ConcurrencyAllow allows runs to overlap.
	ConcurrencyAllow ConcurrencyPolicy = "Allow"
	// ConcurrencyForbid skips the tick if the previous run is in flight.
	ConcurrencyForbid ConcurrencyPolicy = "Forbid"
	// ConcurrencyReplace cancels the in-flight run and starts a new one.
	ConcurrencyReplace ConcurrencyPolicy = "Replace"
)

// RestartPolicy is the policy of if and in which conditions a failed stage
// should be retried.
type RestartPolicy struct {
	// Type specifies the RestartPolicyType.
	Type RestartPolicyType `json:"type,omitempty"`

	// OnFailureRetries is the number of times to retry a failed stage
	// before giving up.
	// +optional
	OnFailureRetries *int32 `json:"onFailureRetries,omitempty"`

	// OnFailureRetryInterval is the interval in seconds between retries.
	// +optional
	OnFailureRetryInterval *int64 `json:"onFailureRetryInterval,omitempty"`
}

type RestartPolicyType string

const (
	RestartPolicyNever     RestartPolicyType = "Never"
	RestartPolicyOnFailure RestartPolicyType = "OnFailure"
)

// RunState represents the state of a whole pipeline run.
type RunState string

const (
	RunStateNew       RunState = ""
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateFailed    RunState = "FAILED"
	RunStateInvalid   RunState = "INVALID"
)

// StageName identifies one of the fixed pipeline stages.
type StageName string

const (
	StageUpload    StageName = "upload"
	StageETL       StageName = "etl"
	StageTraining  StageName = "training"
	StageDeploy    StageName = "deploy"
	StageTransform StageName = "transform"
)

// StageState represents the state of a single stage within a run.
type StageState string

const (
	StagePending   StageState = "PENDING"
	StageRunning   StageState = "RUNNING"
	StageCompleted StageState = "COMPLETED"
	StageFailed    StageState = "FAILED"
	StageSkipped   StageState = "SKIPPED"
)

// StageStatus records the outcome of one stage of a run.
type StageStatus struct {
	Name  StageName  `json:"name"`
	State StageState `json:"state"`

	// Resource is the AWS identifier backing the stage: the Glue job run
	// ID, the training job name, the endpoint name, or the transform job
	// name.
	// +optional
	Resource string `json:"resource,omitempty"`

	// Artifact is the stage's S3 output, when it has one.
	// +optional
	Artifact string `json:"artifact,omitempty"`

	StartTime      time.Time `json:"startTime,omitempty"`
	CompletionTime time.Time `json:"completionTime,omitempty"`

	// Message carries the service-reported failure reason.
	// +optional
	Message string `json:"message,omitempty"`
}

// RunStatus describes one run of a pipeline.
type RunStatus struct {
	// RunName is the unique name of this run, derived from the pipeline
	// name plus a short random suffix.
	RunName string `json:"runName,omitempty"`

	State  RunState `json:"state,omitempty"`
	Reason string   `json:"reason,omitempty"`

	SubmissionTime  time.Time `json:"submissionTime,omitempty"`
	TerminationTime time.Time `json:"terminationTime,omitempty"`

	Stages []StageStatus `json:"stages,omitempty"`

	// ExecutionAttempts counts how many times the run's retryable stages
	// were attempted in total.
	ExecutionAttempts int32 `json:"executionAttempts,omitempty"`
}
