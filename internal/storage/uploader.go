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

// Package storage uploads run inputs (datasets, job code, dependencies) to
// S3 and resolves manifest paths into S3 URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/pkg/util"
)

// Uploader places local files under a run's S3 prefix. Uploads are skipped
// when the object already exists, unless Override is set.
type Uploader struct {
	s3       s3API
	uploader uploadAPI
	sts      stsAPI
	region   string
	logger   *zap.Logger

	// Override re-uploads files that already exist remotely.
	Override bool
}

// NewUploader builds an Uploader from shared service clients.
func NewUploader(clients *util.Clients, logger *zap.Logger) *Uploader {
	return &Uploader{
		s3:       clients.S3,
		uploader: manager.NewUploader(clients.S3),
		sts:      clients.STS,
		region:   clients.Config.Region,
		logger:   logger,
	}
}

// NewUploaderWithClients builds an Uploader from explicit clients, for tests.
func NewUploaderWithClients(s3Client s3API, uploadClient uploadAPI, stsClient stsAPI, region string, logger *zap.Logger) *Uploader {
	return &Uploader{
		s3:       s3Client,
		uploader: uploadClient,
		sts:      stsClient,
		region:   region,
		logger:   logger,
	}
}

// DefaultBucket returns the account's conventional sagemaker-<region>-<account>
// bucket name.
func (u *Uploader) DefaultBucket(ctx context.Context) (string, error) {
	identity, err := u.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve account for default bucket: %w", err)
	}
	return fmt.Sprintf("sagemaker-%s-%s", u.region, aws.ToString(identity.Account)), nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := u.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if u.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(u.region),
		}
	}
	if _, err := u.s3.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	u.logger.Info("created bucket", zap.String("bucket", bucket))
	return nil
}

// UploadFile uploads a local file under the given bucket and key prefix and
// returns its s3:// URL. An object that already exists remotely is not
// re-uploaded unless Override is set.
func (u *Uploader) UploadFile(ctx context.Context, localPath, bucket, keyPrefix string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("file does not exist or cannot be read: %s", localPath)
	}

	key := util.JoinKey(keyPrefix, filepath.Base(localPath))
	exists, err := u.objectExists(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	if exists && !u.Override {
		u.logger.Info("not uploading file, it already exists remotely",
			zap.String("file", filepath.Base(localPath)))
		return util.S3URL(bucket, key), nil
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer func() { _ = file.Close() }()

	u.logger.Info("uploading local file", zap.String("file", localPath), zap.String("key", key))
	if _, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", localPath, bucket, key, err)
	}

	return util.S3URL(bucket, key), nil
}

// UploadFiles uploads several files under the same prefix.
func (u *Uploader) UploadFiles(ctx context.Context, localPaths []string, bucket, keyPrefix string) ([]string, error) {
	var urls []string
	for _, path := range localPaths {
		url, err := u.UploadFile(ctx, path, bucket, keyPrefix)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Resolve turns a manifest path into an s3:// URL, uploading it first when
// it is a local file.
func (u *Uploader) Resolve(ctx context.Context, path, bucket, keyPrefix string) (string, error) {
	local, err := util.IsLocalFile(path)
	if err != nil {
		return "", err
	}
	if !local {
		return path, nil
	}
	return u.UploadFile(ctx, path, bucket, keyPrefix)
}

// ResolveAll resolves a list of manifest paths.
func (u *Uploader) ResolveAll(ctx context.Context, paths []string, bucket, keyPrefix string) ([]string, error) {
	var urls []string
	for _, path := range paths {
		url, err := u.Resolve(ctx, path, bucket, keyPrefix)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (u *Uploader) objectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := u.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check s3://%s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey":
			return true
		}
	}
	return false
}
