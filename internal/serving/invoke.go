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

package serving

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
)

type runtimeAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// Invoker sends inference requests to a deployed endpoint.
type Invoker struct {
	runtime runtimeAPI
}

// NewInvoker builds an Invoker around a SageMaker runtime client.
func NewInvoker(client runtimeAPI) *Invoker {
	return &Invoker{runtime: client}
}

// Invoke sends one request payload and returns the raw response body.
func (i *Invoker) Invoke(ctx context.Context, endpointName string, payload []byte, contentType, accept string) ([]byte, error) {
	out, err := i.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(endpointName),
		Body:         payload,
		ContentType:  aws.String(contentType),
		Accept:       aws.String(accept),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke endpoint %s: %w", endpointName, err)
	}
	return out.Body, nil
}
