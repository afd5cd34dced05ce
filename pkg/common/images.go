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

package common

import "fmt"

// The built-in algorithm containers live in region-specific ECR accounts.
// These tables cover the regions the managed algorithms are published in;
// anything else needs an explicit image in the manifest.

var xgboostAccounts = map[string]string{
	"us-east-1":      "811284229777",
	"us-east-2":      "825641698319",
	"us-west-1":      "632365934929",
	"us-west-2":      "433757028032",
	"ca-central-1":   "469771592824",
	"eu-west-1":      "685385470294",
	"eu-west-2":      "644912444149",
	"eu-central-1":   "813361260812",
	"ap-northeast-1": "501404015308",
	"ap-northeast-2": "306986355934",
	"ap-southeast-1": "475088953585",
	"ap-southeast-2": "544295431143",
	"ap-south-1":     "991648021394",
	"sa-east-1":      "855470959533",
}

var sparkMLAccounts = map[string]string{
	"us-east-1":      "683313688378",
	"us-east-2":      "257758044811",
	"us-west-1":      "746614075791",
	"us-west-2":      "246618743249",
	"ca-central-1":   "341280168497",
	"eu-west-1":      "141502667606",
	"eu-west-2":      "764974769150",
	"eu-central-1":   "492215442770",
	"ap-northeast-1": "354813040037",
	"ap-northeast-2": "366743142698",
	"ap-southeast-1": "121021644041",
	"ap-southeast-2": "783357654285",
	"ap-south-1":     "720646828776",
	"sa-east-1":      "737474898029",
}

const (
	xgboostRepo = "xgboost"
	xgboostTag  = "1"
	sparkMLRepo = "sagemaker-sparkml-serving"
	sparkMLTag  = "3.3"
)

// XGBoostImage returns the built-in XGBoost training container for a region.
func XGBoostImage(region string) (string, error) {
	account, ok := xgboostAccounts[region]
	if !ok {
		return "", fmt.Errorf("no built-in xgboost container registered for region %s", region)
	}
	return ecrImage(account, region, xgboostRepo, xgboostTag), nil
}

// SparkMLServingImage returns the SparkML feature-transformer serving
// container for a region. It executes the serialized transformer bundle
// against incoming requests ahead of the model container.
func SparkMLServingImage(region string) (string, error) {
	account, ok := sparkMLAccounts[region]
	if !ok {
		return "", fmt.Errorf("no sparkml-serving container registered for region %s", region)
	}
	return ecrImage(account, region, sparkMLRepo, sparkMLTag), nil
}

func ecrImage(account, region, repo, tag string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s:%s", account, region, repo, tag)
}
