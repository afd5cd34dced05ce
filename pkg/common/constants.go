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

package common

// Key prefixes under the run prefix.
const (
	KeyPrefixInput     = "input/raw"
	KeyPrefixCode      = "code"
	KeyPrefixETLOutput = "input/transformed"
	KeyPrefixETLModel  = "model/sparkml"
	KeyPrefixTraining  = "model/xgboost"
	KeyPrefixBatchIn   = "batch/input"
	KeyPrefixBatchOut  = "batch/output"
)

// Suffixes appended to the run name to derive AWS resource names.
const (
	SuffixETLJob         = "-etl"
	SuffixTrainingJob    = "-train"
	SuffixModel          = "-model"
	SuffixEndpointConfig = "-config"
	SuffixEndpoint       = "-endpoint"
	SuffixTransformJob   = "-batch"
)

// Arguments the Glue feature-transform script receives. The script reads its
// raw input, writes transformed channel data and serializes the fitted
// transformer bundle using these bucket/prefix pairs.
const (
	GlueArgJobLanguage  = "--job-language"
	GlueArgExtraPyFiles = "--extra-py-files"
	GlueArgExtraJars    = "--extra-jars"
	GlueArgInputBucket  = "--S3_INPUT_BUCKET"
	GlueArgInputPrefix  = "--S3_INPUT_KEY_PREFIX"
	GlueArgOutputBucket = "--S3_OUTPUT_BUCKET"
	GlueArgOutputPrefix = "--S3_OUTPUT_KEY_PREFIX"
	GlueArgModelBucket  = "--S3_MODEL_BUCKET"
	GlueArgModelPrefix  = "--S3_MODEL_KEY_PREFIX"
)

// Environment of the feature-transformer serving container.
const (
	// EnvSparkMLSchema carries the JSON schema the SparkML serving
	// container uses to parse requests and select the output column.
	EnvSparkMLSchema = "SAGEMAKER_SPARKML_SCHEMA"
)

// Defaults for the serving stage.
const (
	DefaultContentType = "text/csv"
)

// Pipeline run metric names.
const (
	MetricPipelineRunCount = "pipeline_run_count"

	MetricPipelineRunRunningCount = "pipeline_run_running_count"

	MetricPipelineRunSuccessCount = "pipeline_run_success_count"

	MetricPipelineRunFailureCount = "pipeline_run_failure_count"

	MetricPipelineRunSuccessExecutionTimeSeconds = "pipeline_run_success_execution_time_seconds"

	MetricPipelineRunFailureExecutionTimeSeconds = "pipeline_run_failure_execution_time_seconds"

	MetricPipelineStageExecutionTimeSeconds = "pipeline_stage_execution_time_seconds"
)
