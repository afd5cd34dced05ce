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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortHumanDuration(t *testing.T) {
	assert.Equal(t, "0s", ShortHumanDuration(500*time.Millisecond))
	assert.Equal(t, "30s", ShortHumanDuration(30*time.Second))
	assert.Equal(t, "5m", ShortHumanDuration(5*time.Minute))
	assert.Equal(t, "3h", ShortHumanDuration(3*time.Hour))
	assert.Equal(t, "2d", ShortHumanDuration(48*time.Hour))
}

func TestGetSinceTime(t *testing.T) {
	assert.Equal(t, "N.A.", GetSinceTime(time.Time{}))
	assert.Equal(t, "1m", GetSinceTime(time.Now().Add(-time.Minute)))
}

func TestFormatNotAvailable(t *testing.T) {
	assert.Equal(t, "N.A.", FormatNotAvailable(""))
	assert.Equal(t, "x", FormatNotAvailable("x"))
}

func TestCreateValidMetricNameLabel(t *testing.T) {
	assert.Equal(t, "pipectl_pipeline_run_count", CreateValidMetricNameLabel("pipectl-", "pipeline-run-count"))
}
