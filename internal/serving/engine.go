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

// Package serving composes the feature transformer and the trained model
// into a pipeline model and manages the real-time endpoint serving it.
// Requests hit the transformer container first; its output column feeds the
// model container.
package serving

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/pkg/common"
	"github.com/imadeit/pipectl/pkg/util"
)

type sageMakerAPI interface {
	CreateModel(ctx context.Context, params *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(ctx context.Context, params *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	CreateEndpoint(ctx context.Context, params *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	DescribeEndpoint(ctx context.Context, params *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	DeleteEndpoint(ctx context.Context, params *sagemaker.DeleteEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error)
	DeleteEndpointConfig(ctx context.Context, params *sagemaker.DeleteEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error)
	DeleteModel(ctx context.Context, params *sagemaker.DeleteModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteModelOutput, error)
}

// ModelConfig describes the two-container pipeline model.
type ModelConfig struct {
	ModelName string
	RoleARN   string

	// TransformerImage and TransformerArtifact are the SparkML serving
	// container and the fitted transformer bundle the ETL stage produced.
	TransformerImage    string
	TransformerArtifact string
	Schema              *v1alpha1.SparkMLSchema

	// ModelImage and ModelArtifact are the algorithm container and the
	// trained model artifact.
	ModelImage    string
	ModelArtifact string
}

// EndpointConfig describes the endpoint serving a pipeline model.
type EndpointConfig struct {
	EndpointName         string
	EndpointConfigName   string
	ModelName            string
	VariantName          string
	InstanceType         string
	InitialInstanceCount int32
}

// Engine manages pipeline models and endpoints.
type Engine struct {
	sm           sageMakerAPI
	logger       *zap.Logger
	PollInterval time.Duration
	// PollTimeout bounds how long an endpoint is waited on. Zero waits
	// until the context is cancelled.
	PollTimeout time.Duration
}

// NewEngine builds a serving engine around a SageMaker client.
func NewEngine(client sageMakerAPI, logger *zap.Logger) *Engine {
	return &Engine{
		sm:           client,
		logger:       logger,
		PollInterval: 30 * time.Second,
		PollTimeout:  time.Hour,
	}
}

// CreatePipelineModel creates the two-container model. Container order is
// the inference order.
func (e *Engine) CreatePipelineModel(ctx context.Context, cfg ModelConfig) error {
	transformer := smtypes.ContainerDefinition{
		Image:        aws.String(cfg.TransformerImage),
		ModelDataUrl: aws.String(cfg.TransformerArtifact),
	}
	if cfg.Schema != nil {
		schemaJSON, err := json.Marshal(cfg.Schema)
		if err != nil {
			return fmt.Errorf("failed to serialize serving schema: %w", err)
		}
		transformer.Environment = map[string]string{
			common.EnvSparkMLSchema: string(schemaJSON),
		}
	}

	_, err := e.sm.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(cfg.ModelName),
		ExecutionRoleArn: aws.String(cfg.RoleARN),
		Containers: []smtypes.ContainerDefinition{
			transformer,
			{
				Image:        aws.String(cfg.ModelImage),
				ModelDataUrl: aws.String(cfg.ModelArtifact),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline model %s: %w", cfg.ModelName, err)
	}

	e.logger.Info("created pipeline model", zap.String("model", cfg.ModelName))
	return nil
}

// Deploy creates the endpoint config and the endpoint.
func (e *Engine) Deploy(ctx context.Context, cfg EndpointConfig) error {
	_, err := e.sm.CreateEndpointConfig(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(cfg.EndpointConfigName),
		ProductionVariants: []smtypes.ProductionVariant{
			{
				VariantName:          aws.String(cfg.VariantName),
				ModelName:            aws.String(cfg.ModelName),
				InstanceType:         smtypes.ProductionVariantInstanceType(cfg.InstanceType),
				InitialInstanceCount: aws.Int32(cfg.InitialInstanceCount),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create endpoint config %s: %w", cfg.EndpointConfigName, err)
	}

	_, err = e.sm.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(cfg.EndpointName),
		EndpointConfigName: aws.String(cfg.EndpointConfigName),
	})
	if err != nil {
		return fmt.Errorf("failed to create endpoint %s: %w", cfg.EndpointName, err)
	}

	e.logger.Info("created endpoint", zap.String("endpoint", cfg.EndpointName))
	return nil
}

// WaitForEndpoint polls the endpoint until it is InService.
func (e *Engine) WaitForEndpoint(ctx context.Context, endpointName string) error {
	var last smtypes.EndpointStatus
	return util.PollUntil(ctx, e.PollInterval, e.PollTimeout, func(ctx context.Context) (bool, error) {
		out, err := e.sm.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
			EndpointName: aws.String(endpointName),
		})
		if err != nil {
			return false, fmt.Errorf("failed to describe endpoint %s: %w", endpointName, err)
		}

		if out.EndpointStatus != last {
			e.logger.Info("endpoint status changed",
				zap.String("endpoint", endpointName),
				zap.String("status", string(out.EndpointStatus)))
			last = out.EndpointStatus
		}

		switch out.EndpointStatus {
		case smtypes.EndpointStatusInService:
			return true, nil
		case smtypes.EndpointStatusFailed:
			return false, fmt.Errorf("endpoint %s failed: %s", endpointName, aws.ToString(out.FailureReason))
		case smtypes.EndpointStatusOutOfService, smtypes.EndpointStatusDeleting:
			return false, fmt.Errorf("endpoint %s entered state %s while waiting for InService", endpointName, out.EndpointStatus)
		default:
			return false, nil
		}
	})
}

// Teardown deletes the endpoint, its config and the model. Resources that
// are already gone are skipped.
func (e *Engine) Teardown(ctx context.Context, endpointName, endpointConfigName, modelName string) error {
	if _, err := e.sm.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{
		EndpointName: aws.String(endpointName),
	}); ignoreNotFound(err) != nil {
		return fmt.Errorf("failed to delete endpoint %s: %w", endpointName, err)
	}

	if _, err := e.sm.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{
		EndpointConfigName: aws.String(endpointConfigName),
	}); ignoreNotFound(err) != nil {
		return fmt.Errorf("failed to delete endpoint config %s: %w", endpointConfigName, err)
	}

	if _, err := e.sm.DeleteModel(ctx, &sagemaker.DeleteModelInput{
		ModelName: aws.String(modelName),
	}); ignoreNotFound(err) != nil {
		return fmt.Errorf("failed to delete model %s: %w", modelName, err)
	}

	e.logger.Info("tore down serving resources", zap.String("endpoint", endpointName))
	return nil
}

// ignoreNotFound drops the service's not-found error so teardown is
// idempotent.
func ignoreNotFound(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		// The delete APIs report missing resources as validation errors.
		return nil
	}
	return err
}
