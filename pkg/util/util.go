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
	"fmt"
	"strings"
	"time"
)

// GetSinceTime renders how long ago a timestamp was, for table output.
func GetSinceTime(t time.Time) string {
	if t.IsZero() {
		return "N.A."
	}
	return ShortHumanDuration(time.Since(t))
}

// ShortHumanDuration renders a duration in the largest useful unit.
func ShortHumanDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// FormatNotAvailable substitutes a placeholder for empty values.
func FormatNotAvailable(info string) string {
	if info == "" {
		return "N.A."
	}
	return info
}

// CreateValidMetricNameLabel joins a prefix and name into a Prometheus-safe
// metric name.
func CreateValidMetricNameLabel(prefix, name string) string {
	// "-" aren't valid characters for prometheus metric names.
	return strings.ReplaceAll(prefix+name, "-", "_")
}
