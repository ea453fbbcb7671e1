// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines the StorageService, which publishes finished videos to
// Google Cloud Storage and generates secure, time-limited URLs for
// accessing them. Signed URLs let downstream consumers (including the
// caption rendering service) fetch the video without their own
// credentials.
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
)

// PublishedObject describes a video that has been uploaded to the output
// bucket.
type PublishedObject struct {
	Bucket    string
	Object    string
	PublicURL string // Direct storage URL for the object.
	SignedURL string // Time-limited V4 signed URL, empty when signing is not configured.
}

// StorageService encapsulates the clients and configuration needed to
// publish videos to GCS and sign download URLs.
type StorageService struct {
	StorageClient *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient     *credentials.IamCredentialsClient // Client for interacting with IAM, used for signing URLs.
	SignerEmail   string                            // The service account email used to sign URLs.
	Bucket        string                            // The output bucket name.
	SignedURLTTL  time.Duration                     // Lifetime of generated signed URLs.
}

// Publish uploads the local file to the output bucket under objectName and
// returns the object's URLs. Upload failures leave no partial object; the
// GCS writer discards incomplete uploads on Close error.
func (s *StorageService) Publish(ctx context.Context, localPath string, objectName string) (*PublishedObject, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("could not open %s for publishing: %w", localPath, err)
	}
	defer file.Close()

	writer := s.StorageClient.Bucket(s.Bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "video/mp4"
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to upload %s to gs://%s/%s: %w", localPath, s.Bucket, objectName, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload of gs://%s/%s: %w", s.Bucket, objectName, err)
	}

	published := &PublishedObject{
		Bucket:    s.Bucket,
		Object:    objectName,
		PublicURL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.Bucket, objectName),
	}

	if s.SignerEmail != "" {
		signed, err := s.GenerateSignedURL(ctx, objectName, s.SignedURLTTL)
		if err != nil {
			// A missing signed URL degrades the response but the video is
			// already published; callers still get the public URL.
			return published, fmt.Errorf("upload succeeded but signing failed: %w", err)
		}
		published.SignedURL = signed
	}
	return published, nil
}

// GenerateSignedURL creates a time-limited, secure URL to access a private
// GCS object. The URL is signed with the V4 scheme using the credentials
// of the configured signer service account.
func (s *StorageService) GenerateSignedURL(_ context.Context, objectName string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
	}

	u, err := s.StorageClient.Bucket(s.Bucket).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.Bucket, objectName, err)
	}
	return u, nil
}
