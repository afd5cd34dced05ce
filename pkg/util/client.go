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

package util

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Clients bundles the AWS service clients the pipeline stages use.
type Clients struct {
	Config    aws.Config
	S3        *s3.Client
	STS       *sts.Client
	Glue      *glue.Client
	SageMaker *sagemaker.Client
	Runtime   *sagemakerruntime.Client
}

// GetClients builds service clients from the default credential chain.
// Region and profile are optional overrides of the shared configuration.
func GetClients(ctx context.Context, region, profile string) (*Clients, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("no AWS region configured; set --region, AWS_REGION or a profile region")
	}

	return &Clients{
		Config:    cfg,
		S3:        s3.NewFromConfig(cfg),
		STS:       sts.NewFromConfig(cfg),
		Glue:      glue.NewFromConfig(cfg),
		SageMaker: sagemaker.NewFromConfig(cfg),
		Runtime:   sagemakerruntime.NewFromConfig(cfg),
	}, nil
}
