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
	"regexp"
)

// AWS resource names derived from the run name must fit SageMaker's
// 63-character limit after the longest suffix is appended.
const maxNameLength = 48

var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9](-*[a-zA-Z0-9])*$`)

// ValidatePipeline checks a defaulted Pipeline for fields the AWS services
// would reject, so mistakes surface before any resource is created.
func ValidatePipeline(p *Pipeline) error {
	if p.Name == "" {
		return fmt.Errorf("'name' must be set")
	}
	if len(p.Name) > maxNameLength {
		return fmt.Errorf("'name' must be at most %d characters, got %d", maxNameLength, len(p.Name))
	}
	if !nameRegexp.MatchString(p.Name) {
		return fmt.Errorf("'name' must be alphanumeric with hyphens, got %q", p.Name)
	}
	if p.Kind != KindPipeline {
		return fmt.Errorf("unsupported kind %q, expected %q", p.Kind, KindPipeline)
	}

	if p.Spec.RoleARN == "" {
		return fmt.Errorf("'spec.roleArn' must be set")
	}
	if p.Spec.Dataset == "" {
		return fmt.Errorf("'spec.dataset' must be set")
	}
	if p.Spec.ETL.ScriptLocation == "" {
		return fmt.Errorf("'spec.etl.scriptLocation' must be set")
	}

	if p.Spec.Training.Algorithm != "xgboost" && p.Spec.Training.Image == nil {
		return fmt.Errorf("'spec.training.image' must be set when 'spec.training.algorithm' is %q", p.Spec.Training.Algorithm)
	}

	if p.Spec.Serving.Schema != nil {
		if len(p.Spec.Serving.Schema.Input) == 0 {
			return fmt.Errorf("'spec.serving.schema.input' cannot be empty")
		}
		for i, col := range p.Spec.Serving.Schema.Input {
			if col.Name == "" || col.Type == "" {
				return fmt.Errorf("'spec.serving.schema.input[%d]' must set both name and type", i)
			}
		}
		if p.Spec.Serving.Schema.Output.Name == "" {
			return fmt.Errorf("'spec.serving.schema.output.name' must be set")
		}
	}

	if p.Spec.Transform != nil && p.Spec.Transform.Input == "" {
		return fmt.Errorf("'spec.transform.input' must be set")
	}

	switch p.Spec.RestartPolicy.Type {
	case RestartPolicyNever, RestartPolicyOnFailure:
	default:
		return fmt.Errorf("'spec.restartPolicy.type' must be Never or OnFailure, got %q", p.Spec.RestartPolicy.Type)
	}

	if p.Spec.Schedule != nil {
		if p.Spec.Schedule.Schedule == "" {
			return fmt.Errorf("'spec.schedule.schedule' must be set")
		}
		switch p.Spec.Schedule.ConcurrencyPolicy {
		case ConcurrencyAllow, ConcurrencyForbid, ConcurrencyReplace:
		default:
			return fmt.Errorf("'spec.schedule.concurrencyPolicy' must be Allow, Forbid or Replace, got %q", p.Spec.Schedule.ConcurrencyPolicy)
		}
	}

	return nil
}
