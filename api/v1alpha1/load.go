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

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// LoadPipelineFromFile reads a Pipeline manifest from a YAML file, applies
// defaults and validates it.
func LoadPipelineFromFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	pipeline := &Pipeline{}
	if err := yaml.UnmarshalStrict(data, pipeline); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	SetPipelineDefaults(pipeline)
	if err := ValidatePipeline(pipeline); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return pipeline, nil
}
