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
	"net/url"
	"strings"
)

// S3URL assembles an s3:// URL from a bucket and key parts.
func S3URL(bucket string, keyParts ...string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, JoinKey(keyParts...))
}

// JoinKey joins S3 key parts with single slashes, dropping empty parts.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// ParseS3URL splits an s3:// URL into bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse S3 URL %s: %w", raw, err)
	}
	if u.Scheme != "s3" && u.Scheme != "s3a" {
		return "", "", fmt.Errorf("not an S3 URL: %s", raw)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("S3 URL %s has no bucket", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// IsLocalFile returns whether the given path names a local file as opposed
// to a remote URL.
func IsLocalFile(path string) (bool, error) {
	u, err := url.Parse(path)
	if err != nil {
		return false, err
	}
	return u.Scheme == "", nil
}
