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

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/internal/etl"
	"github.com/imadeit/pipectl/internal/serving"
	"github.com/imadeit/pipectl/internal/storage"
	"github.com/imadeit/pipectl/internal/training"
	"github.com/imadeit/pipectl/internal/transform"
)

// fakeS3 answers every bucket/object check affirmatively; runner tests use
// s3:// manifest paths so nothing is actually uploaded.
type fakeS3 struct{}

func (fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, nil
}

func (fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, nil
}

type fakeUpload struct{}

func (fakeUpload) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	return &manager.UploadOutput{}, nil
}

type fakeSTS struct{}

func (fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
}

type fakeGlue struct {
	created     []*glue.CreateJobInput
	startedRuns []*glue.StartJobRunInput
	stopped     []*glue.BatchStopJobRunInput
	// failRuns makes the first n job runs fail.
	failRuns int
	runs     int
	// pending keeps job runs in a running state; cancelRun, when set, is
	// called on the first status poll.
	pending   bool
	cancelRun context.CancelFunc
}

func (f *fakeGlue) GetJob(ctx context.Context, params *glue.GetJobInput, optFns ...func(*glue.Options)) (*glue.GetJobOutput, error) {
	return nil, &gluetypes.EntityNotFoundException{Message: aws.String("no such job")}
}

func (f *fakeGlue) CreateJob(ctx context.Context, params *glue.CreateJobInput, optFns ...func(*glue.Options)) (*glue.CreateJobOutput, error) {
	f.created = append(f.created, params)
	return &glue.CreateJobOutput{Name: params.Name}, nil
}

func (f *fakeGlue) UpdateJob(ctx context.Context, params *glue.UpdateJobInput, optFns ...func(*glue.Options)) (*glue.UpdateJobOutput, error) {
	return &glue.UpdateJobOutput{}, nil
}

func (f *fakeGlue) DeleteJob(ctx context.Context, params *glue.DeleteJobInput, optFns ...func(*glue.Options)) (*glue.DeleteJobOutput, error) {
	return &glue.DeleteJobOutput{}, nil
}

func (f *fakeGlue) StartJobRun(ctx context.Context, params *glue.StartJobRunInput, optFns ...func(*glue.Options)) (*glue.StartJobRunOutput, error) {
	f.startedRuns = append(f.startedRuns, params)
	f.runs++
	return &glue.StartJobRunOutput{JobRunId: aws.String("jr_0001")}, nil
}

func (f *fakeGlue) GetJobRun(ctx context.Context, params *glue.GetJobRunInput, optFns ...func(*glue.Options)) (*glue.GetJobRunOutput, error) {
	if f.pending {
		if f.cancelRun != nil {
			f.cancelRun()
		}
		return &glue.GetJobRunOutput{
			JobRun: &gluetypes.JobRun{Id: params.RunId, JobRunState: gluetypes.JobRunStateRunning},
		}, nil
	}
	state := gluetypes.JobRunStateSucceeded
	if f.runs <= f.failRuns {
		state = gluetypes.JobRunStateFailed
	}
	return &glue.GetJobRunOutput{
		JobRun: &gluetypes.JobRun{
			Id:           params.RunId,
			JobRunState:  state,
			ErrorMessage: aws.String("transform script error"),
		},
	}, nil
}

func (f *fakeGlue) BatchStopJobRun(ctx context.Context, params *glue.BatchStopJobRunInput, optFns ...func(*glue.Options)) (*glue.BatchStopJobRunOutput, error) {
	f.stopped = append(f.stopped, params)
	return &glue.BatchStopJobRunOutput{}, nil
}

type fakeSageMaker struct {
	trainingJobs  []*sagemaker.CreateTrainingJobInput
	models        []*sagemaker.CreateModelInput
	endpoints     []*sagemaker.CreateEndpointInput
	transformJobs []*sagemaker.CreateTransformJobInput
	stopped       []*sagemaker.StopTrainingJobInput

	deletedEndpoints []string
	deletedConfigs   []string
	deletedModels    []string
	// failTrainings makes the first n training jobs fail.
	failTrainings int
	// pendingTraining keeps training jobs in progress; cancelRun, when
	// set, is called on the first status poll.
	pendingTraining bool
	cancelRun       context.CancelFunc
}

func (f *fakeSageMaker) CreateTrainingJob(ctx context.Context, params *sagemaker.CreateTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error) {
	f.trainingJobs = append(f.trainingJobs, params)
	return &sagemaker.CreateTrainingJobOutput{}, nil
}

func (f *fakeSageMaker) DescribeTrainingJob(ctx context.Context, params *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error) {
	if f.pendingTraining {
		if f.cancelRun != nil {
			f.cancelRun()
		}
		return &sagemaker.DescribeTrainingJobOutput{
			TrainingJobName:   params.TrainingJobName,
			TrainingJobStatus: smtypes.TrainingJobStatusInProgress,
		}, nil
	}
	if len(f.trainingJobs) <= f.failTrainings {
		return &sagemaker.DescribeTrainingJobOutput{
			TrainingJobName:   params.TrainingJobName,
			TrainingJobStatus: smtypes.TrainingJobStatusFailed,
			FailureReason:     aws.String("AlgorithmError"),
		}, nil
	}
	return &sagemaker.DescribeTrainingJobOutput{
		TrainingJobName:   params.TrainingJobName,
		TrainingJobStatus: smtypes.TrainingJobStatusCompleted,
		ModelArtifacts: &smtypes.ModelArtifacts{
			S3ModelArtifacts: aws.String("s3://bucket/abalone/run/model/xgboost/output/model.tar.gz"),
		},
	}, nil
}

func (f *fakeSageMaker) StopTrainingJob(ctx context.Context, params *sagemaker.StopTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopTrainingJobOutput, error) {
	f.stopped = append(f.stopped, params)
	return &sagemaker.StopTrainingJobOutput{}, nil
}

func (f *fakeSageMaker) CreateModel(ctx context.Context, params *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error) {
	f.models = append(f.models, params)
	return &sagemaker.CreateModelOutput{}, nil
}

func (f *fakeSageMaker) CreateEndpointConfig(ctx context.Context, params *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error) {
	return &sagemaker.CreateEndpointConfigOutput{}, nil
}

func (f *fakeSageMaker) CreateEndpoint(ctx context.Context, params *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error) {
	f.endpoints = append(f.endpoints, params)
	return &sagemaker.CreateEndpointOutput{}, nil
}

func (f *fakeSageMaker) DescribeEndpoint(ctx context.Context, params *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error) {
	return &sagemaker.DescribeEndpointOutput{
		EndpointName:   params.EndpointName,
		EndpointStatus: smtypes.EndpointStatusInService,
	}, nil
}

func (f *fakeSageMaker) DeleteEndpoint(ctx context.Context, params *sagemaker.DeleteEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error) {
	f.deletedEndpoints = append(f.deletedEndpoints, aws.ToString(params.EndpointName))
	return &sagemaker.DeleteEndpointOutput{}, nil
}

func (f *fakeSageMaker) DeleteEndpointConfig(ctx context.Context, params *sagemaker.DeleteEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error) {
	f.deletedConfigs = append(f.deletedConfigs, aws.ToString(params.EndpointConfigName))
	return &sagemaker.DeleteEndpointConfigOutput{}, nil
}

func (f *fakeSageMaker) DeleteModel(ctx context.Context, params *sagemaker.DeleteModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteModelOutput, error) {
	f.deletedModels = append(f.deletedModels, aws.ToString(params.ModelName))
	return &sagemaker.DeleteModelOutput{}, nil
}

func (f *fakeSageMaker) CreateTransformJob(ctx context.Context, params *sagemaker.CreateTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTransformJobOutput, error) {
	f.transformJobs = append(f.transformJobs, params)
	return &sagemaker.CreateTransformJobOutput{}, nil
}

func (f *fakeSageMaker) DescribeTransformJob(ctx context.Context, params *sagemaker.DescribeTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error) {
	return &sagemaker.DescribeTransformJobOutput{
		TransformJobName:   params.TransformJobName,
		TransformJobStatus: smtypes.TransformJobStatusCompleted,
	}, nil
}

func (f *fakeSageMaker) StopTransformJob(ctx context.Context, params *sagemaker.StopTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopTransformJobOutput, error) {
	return &sagemaker.StopTransformJobOutput{}, nil
}

func newTestRunner(glueClient *fakeGlue, sm *fakeSageMaker) *Runner {
	logger := zap.NewNop()

	uploader := storage.NewUploaderWithClients(fakeS3{}, fakeUpload{}, fakeSTS{}, "us-east-1", logger)

	etlEngine := etl.NewEngine(glueClient, logger)
	etlEngine.PollInterval = time.Millisecond
	trainingEngine := training.NewEngine(sm, logger)
	trainingEngine.PollInterval = time.Millisecond
	servingEngine := serving.NewEngine(sm, logger)
	servingEngine.PollInterval = time.Millisecond
	transformEngine := transform.NewEngine(sm, logger)
	transformEngine.PollInterval = time.Millisecond

	return NewRunnerWithEngines(uploader, etlEngine, trainingEngine, servingEngine, transformEngine, "us-east-1", logger)
}

func testPipeline() *v1alpha1.Pipeline {
	p := &v1alpha1.Pipeline{
		Name: "abalone",
		Spec: v1alpha1.PipelineSpec{
			Region:  "us-east-1",
			RoleARN: "arn:aws:iam::123456789012:role/pipeline",
			Bucket:  "bucket",
			Dataset: "s3://bucket/source/abalone.csv",
			ETL: v1alpha1.GlueJobSpec{
				ScriptLocation: "s3://bucket/source/abalone_etl.py",
			},
			Serving: v1alpha1.ServingSpec{
				Schema: &v1alpha1.SparkMLSchema{
					Input:  []v1alpha1.SchemaColumn{{Name: "sex", Type: "string"}},
					Output: v1alpha1.SchemaColumn{Name: "features", Type: "double", Struct: "vector"},
				},
			},
			Transform: &v1alpha1.TransformSpec{
				Input: "s3://bucket/source/abalone_batch.csv",
			},
		},
	}
	v1alpha1.SetPipelineDefaults(p)
	return p
}

func stageStates(status *v1alpha1.RunStatus) map[v1alpha1.StageName]v1alpha1.StageState {
	states := make(map[v1alpha1.StageName]v1alpha1.StageState, len(status.Stages))
	for _, stage := range status.Stages {
		states[stage.Name] = stage.State
	}
	return states
}

func TestExecute_AllStages(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.Execute(context.Background(), testPipeline(), "abalone-1a2b3c4d")
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.RunStateCompleted, status.State)
	assert.Equal(t, map[v1alpha1.StageName]v1alpha1.StageState{
		v1alpha1.StageUpload:    v1alpha1.StageCompleted,
		v1alpha1.StageETL:       v1alpha1.StageCompleted,
		v1alpha1.StageTraining:  v1alpha1.StageCompleted,
		v1alpha1.StageDeploy:    v1alpha1.StageCompleted,
		v1alpha1.StageTransform: v1alpha1.StageCompleted,
	}, stageStates(status))

	// Stages ran in pipeline order.
	var order []v1alpha1.StageName
	for _, stage := range status.Stages {
		order = append(order, stage.Name)
	}
	assert.Equal(t, []v1alpha1.StageName{
		v1alpha1.StageUpload,
		v1alpha1.StageETL,
		v1alpha1.StageTraining,
		v1alpha1.StageDeploy,
		v1alpha1.StageTransform,
	}, order)

	// The Glue run read the raw prefix and wrote the transformed one.
	require.Len(t, glueClient.startedRuns, 1)
	args := glueClient.startedRuns[0].Arguments
	assert.Equal(t, "abalone/abalone-1a2b3c4d/input/raw", args["--S3_INPUT_KEY_PREFIX"])
	assert.Equal(t, "abalone/abalone-1a2b3c4d/input/transformed", args["--S3_OUTPUT_KEY_PREFIX"])
	assert.Equal(t, "abalone/abalone-1a2b3c4d/model/sparkml", args["--S3_MODEL_KEY_PREFIX"])

	// Training consumed the transformed channels.
	require.Len(t, sm.trainingJobs, 1)
	training := sm.trainingJobs[0]
	assert.Equal(t, "abalone-1a2b3c4d-train", *training.TrainingJobName)
	assert.Equal(t,
		"s3://bucket/abalone/abalone-1a2b3c4d/input/transformed/train",
		*training.InputDataConfig[0].DataSource.S3DataSource.S3Uri)

	// The pipeline model pairs the fitted transformer with the trained model.
	require.Len(t, sm.models, 1)
	containers := sm.models[0].Containers
	require.Len(t, containers, 2)
	assert.Equal(t,
		"s3://bucket/abalone/abalone-1a2b3c4d/model/sparkml/model.tar.gz",
		*containers[0].ModelDataUrl)
	assert.Equal(t,
		"s3://bucket/abalone/run/model/xgboost/output/model.tar.gz",
		*containers[1].ModelDataUrl)

	require.Len(t, sm.transformJobs, 1)
	assert.Equal(t, "abalone-1a2b3c4d-batch", *sm.transformJobs[0].TransformJobName)
	assert.Equal(t, int32(1), status.ExecutionAttempts)
}

func TestExecute_SkipsTransformWhenUnconfigured(t *testing.T) {
	p := testPipeline()
	p.Spec.Transform = nil

	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.Execute(context.Background(), p, "abalone-1a2b3c4d")
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.RunStateCompleted, status.State)
	assert.Equal(t, v1alpha1.StageSkipped, stageStates(status)[v1alpha1.StageTransform])
	assert.Empty(t, sm.transformJobs)
}

func TestExecute_SkipTransformFlag(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)
	runner.SkipTransform = true

	status, err := runner.Execute(context.Background(), testPipeline(), "abalone-1a2b3c4d")
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.StageSkipped, stageStates(status)[v1alpha1.StageTransform])
	assert.Empty(t, sm.transformJobs)
}

func TestExecute_ETLFailureShortCircuits(t *testing.T) {
	glueClient := &fakeGlue{failRuns: 10}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.Execute(context.Background(), testPipeline(), "abalone-1a2b3c4d")
	require.Error(t, err)

	assert.Equal(t, v1alpha1.RunStateFailed, status.State)
	assert.Contains(t, status.Reason, "stage etl failed")
	assert.Equal(t, v1alpha1.StageFailed, stageStates(status)[v1alpha1.StageETL])

	// Later stages never started.
	assert.Empty(t, sm.trainingJobs)
	assert.Empty(t, sm.models)
	assert.Empty(t, sm.endpoints)
}

func TestExecute_RetriesTrainingOnFailure(t *testing.T) {
	p := testPipeline()
	retries := int32(1)
	interval := int64(0)
	p.Spec.RestartPolicy = v1alpha1.RestartPolicy{
		Type:                   v1alpha1.RestartPolicyOnFailure,
		OnFailureRetries:       &retries,
		OnFailureRetryInterval: &interval,
	}

	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{failTrainings: 1}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.Execute(context.Background(), p, "abalone-1a2b3c4d")
	require.NoError(t, err)

	require.Len(t, sm.trainingJobs, 2)
	assert.Equal(t, "abalone-1a2b3c4d-train", *sm.trainingJobs[0].TrainingJobName)
	// Retried jobs get a distinct name; training job names are unique.
	assert.Equal(t, "abalone-1a2b3c4d-train-r2", *sm.trainingJobs[1].TrainingJobName)
	assert.Equal(t, int32(2), status.ExecutionAttempts)
	assert.Equal(t, v1alpha1.RunStateCompleted, status.State)
}

func TestExecute_NoRetriesByDefault(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{failTrainings: 1}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.Execute(context.Background(), testPipeline(), "abalone-1a2b3c4d")
	require.Error(t, err)

	assert.Len(t, sm.trainingJobs, 1)
	assert.Equal(t, v1alpha1.RunStateFailed, status.State)
}

func TestExecute_InterruptStopsETLRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	glueClient := &fakeGlue{pending: true, cancelRun: cancel}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	_, err := runner.Execute(ctx, testPipeline(), "abalone-1a2b3c4d")
	require.Error(t, err)

	require.Len(t, glueClient.stopped, 1)
	assert.Equal(t, []string{"jr_0001"}, glueClient.stopped[0].JobRunIds)
	assert.Empty(t, sm.trainingJobs)
}

func TestExecute_InterruptStopsTrainingJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{pendingTraining: true, cancelRun: cancel}
	runner := newTestRunner(glueClient, sm)

	_, err := runner.Execute(ctx, testPipeline(), "abalone-1a2b3c4d")
	require.Error(t, err)

	require.Len(t, sm.stopped, 1)
	assert.Equal(t, "abalone-1a2b3c4d-train", aws.ToString(sm.stopped[0].TrainingJobName))
	assert.Empty(t, sm.endpoints)
}

func TestTeardownServing(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	require.NoError(t, runner.TeardownServing(context.Background(), "abalone-1a2b3c4d"))
	assert.Equal(t, []string{"abalone-1a2b3c4d-endpoint"}, sm.deletedEndpoints)
	assert.Equal(t, []string{"abalone-1a2b3c4d-config"}, sm.deletedConfigs)
	assert.Equal(t, []string{"abalone-1a2b3c4d-model"}, sm.deletedModels)
}

func TestExecuteStage_Transform(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.ExecuteStage(context.Background(), testPipeline(), "abalone-1a2b3c4d", v1alpha1.StageTransform)
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.RunStateCompleted, status.State)
	require.Len(t, sm.transformJobs, 1)
	assert.Equal(t, "abalone-1a2b3c4d-model", *sm.transformJobs[0].ModelName)
	// Only the requested stage ran.
	assert.Empty(t, glueClient.startedRuns)
	assert.Empty(t, sm.trainingJobs)
}

func TestExecuteStage_DeployUsesTrainingArtifact(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{trainingJobs: []*sagemaker.CreateTrainingJobInput{{}}}
	runner := newTestRunner(glueClient, sm)

	status, err := runner.ExecuteStage(context.Background(), testPipeline(), "abalone-1a2b3c4d", v1alpha1.StageDeploy)
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.RunStateCompleted, status.State)
	require.Len(t, sm.models, 1)
	assert.Equal(t,
		"s3://bucket/abalone/run/model/xgboost/output/model.tar.gz",
		*sm.models[0].Containers[1].ModelDataUrl)
	require.Len(t, sm.endpoints, 1)
	assert.Equal(t, "abalone-1a2b3c4d-endpoint", *sm.endpoints[0].EndpointName)
}

func TestExecuteStage_TransformWithoutSection(t *testing.T) {
	p := testPipeline()
	p.Spec.Transform = nil
	runner := newTestRunner(&fakeGlue{}, &fakeSageMaker{})

	status, err := runner.ExecuteStage(context.Background(), p, "abalone-1a2b3c4d", v1alpha1.StageTransform)
	require.Error(t, err)
	assert.Equal(t, v1alpha1.RunStateFailed, status.State)
	assert.Contains(t, err.Error(), "no transform section")
}

func TestExecute_ObserverNotifications(t *testing.T) {
	glueClient := &fakeGlue{}
	sm := &fakeSageMaker{}
	runner := newTestRunner(glueClient, sm)

	observer := &recordingObserver{}
	runner.Observer = observer

	_, err := runner.Execute(context.Background(), testPipeline(), "abalone-1a2b3c4d")
	require.NoError(t, err)

	assert.Equal(t, 1, observer.started)
	assert.Equal(t, 1, observer.completed)
	assert.Equal(t, 0, observer.failed)
	assert.Len(t, observer.stages, 5)
}

type recordingObserver struct {
	started   int
	completed int
	failed    int
	stages    []v1alpha1.StageName
}

func (o *recordingObserver) RunStarted()                  { o.started++ }
func (o *recordingObserver) RunCompleted(d time.Duration) { o.completed++ }
func (o *recordingObserver) RunFailed(d time.Duration)    { o.failed++ }
func (o *recordingObserver) StageCompleted(stage v1alpha1.StageName, d time.Duration) {
	o.stages = append(o.stages, stage)
}
