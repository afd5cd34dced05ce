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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "a/b/c", JoinKey("a", "b", "c"))
	assert.Equal(t, "a/b", JoinKey("/a/", "", "/b"))
	assert.Equal(t, "abalone/input/raw", JoinKey("abalone", "input/raw"))
	assert.Equal(t, "", JoinKey("", "/"))
}

func TestS3URL(t *testing.T) {
	assert.Equal(t, "s3://bucket/a/b", S3URL("bucket", "a", "b"))
	assert.Equal(t, "s3://bucket/prefix/model.tar.gz", S3URL("bucket", "prefix/", "model.tar.gz"))
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://my-bucket/some/key.csv")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "some/key.csv", key)

	bucket, key, err = ParseS3URL("s3a://my-bucket/key")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "key", key)

	_, _, err = ParseS3URL("https://example.com/key")
	assert.ErrorContains(t, err, "not an S3 URL")

	_, _, err = ParseS3URL("s3://")
	assert.ErrorContains(t, err, "no bucket")
}

func TestIsLocalFile(t *testing.T) {
	local, err := IsLocalFile("data/abalone.csv")
	require.NoError(t, err)
	assert.True(t, local)

	local, err = IsLocalFile("s3://bucket/data/abalone.csv")
	require.NoError(t, err)
	assert.False(t, local)
}
