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

// SetPipelineDefaults sets default values for certain fields of a Pipeline.
func SetPipelineDefaults(p *Pipeline) {
	if p == nil {
		return
	}

	if p.APIVersion == "" {
		p.APIVersion = GroupVersion
	}
	if p.Kind == "" {
		p.Kind = KindPipeline
	}

	if p.Spec.Prefix == "" {
		p.Spec.Prefix = p.Name
	}

	if p.Spec.RestartPolicy.Type == "" {
		p.Spec.RestartPolicy.Type = RestartPolicyNever
	}
	if p.Spec.RestartPolicy.Type == RestartPolicyOnFailure {
		if p.Spec.RestartPolicy.OnFailureRetries == nil {
			p.Spec.RestartPolicy.OnFailureRetries = int32Ptr(1)
		}
		if p.Spec.RestartPolicy.OnFailureRetryInterval == nil {
			p.Spec.RestartPolicy.OnFailureRetryInterval = int64Ptr(5)
		}
	}

	setGlueJobSpecDefaults(&p.Spec.ETL)
	setTrainingSpecDefaults(&p.Spec.Training)
	setServingSpecDefaults(&p.Spec.Serving)
	if p.Spec.Transform != nil {
		setTransformSpecDefaults(p.Spec.Transform)
	}
	if p.Spec.Schedule != nil {
		setScheduleSpecDefaults(p.Spec.Schedule)
	}
}

func setGlueJobSpecDefaults(spec *GlueJobSpec) {
	if spec.GlueVersion == "" {
		spec.GlueVersion = "4.0"
	}
	if spec.WorkerType == "" {
		spec.WorkerType = "G.1X"
	}
	if spec.NumberOfWorkers == nil {
		spec.NumberOfWorkers = int32Ptr(5)
	}
	if spec.TimeoutMinutes == nil {
		spec.TimeoutMinutes = int32Ptr(60)
	}
}

func setTrainingSpecDefaults(spec *TrainingSpec) {
	if spec.Algorithm == "" {
		spec.Algorithm = "xgboost"
	}
	if spec.InstanceType == "" {
		spec.InstanceType = "ml.m5.xlarge"
	}
	if spec.InstanceCount == nil {
		spec.InstanceCount = int32Ptr(1)
	}
	if spec.VolumeSizeGB == nil {
		spec.VolumeSizeGB = int32Ptr(20)
	}
	if spec.MaxRuntimeSeconds == nil {
		spec.MaxRuntimeSeconds = int64Ptr(86400)
	}
	if spec.ContentType == "" {
		spec.ContentType = "text/csv"
	}
	if spec.TrainChannel == "" {
		spec.TrainChannel = "train"
	}
	if spec.ValidationChannel == "" {
		spec.ValidationChannel = "validation"
	}
}

func setServingSpecDefaults(spec *ServingSpec) {
	if spec.InstanceType == "" {
		spec.InstanceType = "ml.c4.xlarge"
	}
	if spec.InitialInstanceCount == nil {
		spec.InitialInstanceCount = int32Ptr(1)
	}
	if spec.VariantName == "" {
		spec.VariantName = "AllTraffic"
	}
}

func setTransformSpecDefaults(spec *TransformSpec) {
	if spec.ContentType == "" {
		spec.ContentType = "text/csv"
	}
	if spec.SplitType == "" {
		spec.SplitType = "Line"
	}
	if spec.AssembleWith == "" {
		spec.AssembleWith = "Line"
	}
	if spec.Accept == "" {
		spec.Accept = "text/csv"
	}
	if spec.InstanceType == "" {
		spec.InstanceType = "ml.m5.xlarge"
	}
	if spec.InstanceCount == nil {
		spec.InstanceCount = int32Ptr(1)
	}
}

func setScheduleSpecDefaults(spec *ScheduleSpec) {
	if spec.TimeZone == "" {
		spec.TimeZone = "Local"
	}
	if spec.ConcurrencyPolicy == "" {
		spec.ConcurrencyPolicy = ConcurrencyAllow
	}
}

func int32Ptr(v int32) *int32 { return &v }

func int64Ptr(v int64) *int64 { return &v }
