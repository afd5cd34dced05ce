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

// Package v1alpha1 contains the pipeline manifest types.
package v1alpha1

const (
	// GroupVersion identifies the manifest schema version.
	GroupVersion = "pipectl.dev/v1alpha1"

	// KindPipeline is the manifest kind accepted by the CLI.
	KindPipeline = "Pipeline"
)
