// Package azure implements the Azure Blob Storage backend. Downloads and
// client-direct uploads are served via time-limited SAS (Shared Access
// Signature) URLs generated on demand rather than proxied through the API.
package azure

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/module-registry/module-registry/internal/config"
	"github.com/module-registry/module-registry/internal/storage"
)

func init() {
	storage.Register("azure", func(cfg *config.Config) (storage.Backend, error) {
		return New(&cfg.Storage.Azure)
	})
}

// Backend implements storage.Backend on Azure Blob Storage.
type Backend struct {
	client        *azblob.Client
	containerName string
	accountName   string
	accountKey    string
}

// New creates an Azure Blob Storage backend using shared key credentials.
func New(cfg *config.AzureStorageConfig) (*Backend, error) {
	if cfg.AccountName == "" {
		return nil, fmt.Errorf("azure storage account name is required")
	}
	if cfg.AccountKey == "" {
		return nil, fmt.Errorf("azure storage account key is required")
	}
	if cfg.ContainerName == "" {
		return nil, fmt.Errorf("azure storage container name is required")
	}

	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
	}

	return &Backend{
		client:        client,
		containerName: cfg.ContainerName,
		accountName:   cfg.AccountName,
		accountKey:    cfg.AccountKey,
	}, nil
}

// Upload stores a blob and records its SHA256 in blob metadata.
func (b *Backend) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	hasher := sha256.New()
	hasher.Write(data)
	checksum := hex.EncodeToString(hasher.Sum(nil))

	blobClient := b.client.ServiceClient().NewContainerClient(b.containerName).NewBlockBlobClient(path)
	_, err = blobClient.Upload(ctx, streaming.NopCloser(bytes.NewReader(data)), &blockblob.UploadOptions{
		Metadata: map[string]*string{
			"sha256": &checksum,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}

	return &storage.UploadResult{
		Path:     path,
		Size:     int64(len(data)),
		Checksum: checksum,
	}, nil
}

// Download retrieves a blob.
func (b *Backend) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	blobClient := b.client.ServiceClient().NewContainerClient(b.containerName).NewBlobClient(path)

	resp, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download from Azure Blob: %w", err)
	}

	return resp.Body, nil
}

// Delete removes a blob. A missing blob is not an error.
func (b *Backend) Delete(ctx context.Context, path string) error {
	exists, err := b.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	blobClient := b.client.ServiceClient().NewContainerClient(b.containerName).NewBlobClient(path)
	if _, err := blobClient.Delete(ctx, nil); err != nil {
		return fmt.Errorf("failed to delete from Azure Blob: %w", err)
	}

	return nil
}

// Exists checks blob presence via a properties fetch.
func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	blobClient := b.client.ServiceClient().NewContainerClient(b.containerName).NewBlobClient(path)

	if _, err := blobClient.GetProperties(ctx, nil); err != nil {
		// Properties failure for a blob means not found.
		return false, nil
	}

	return true, nil
}

// PresignDownload returns a read-only SAS URL for the blob.
func (b *Backend) PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return b.signedURL(path, ttl, sas.BlobPermissions{Read: true})
}

// PresignUpload returns a write SAS URL for the blob.
func (b *Backend) PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return b.signedURL(path, ttl, sas.BlobPermissions{Write: true, Create: true})
}

func (b *Backend) signedURL(path string, ttl time.Duration, perms sas.BlobPermissions) (string, error) {
	credential, err := azblob.NewSharedKeyCredential(b.accountName, b.accountKey)
	if err != nil {
		return "", fmt.Errorf("failed to create credential for SAS: %w", err)
	}

	// Start slightly in the past to allow for clock skew.
	startTime := time.Now().UTC().Add(-5 * time.Minute)
	expiryTime := time.Now().UTC().Add(ttl)

	sasQueryParams, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     startTime,
		ExpiryTime:    expiryTime,
		Permissions:   perms.String(),
		ContainerName: b.containerName,
		BlobName:      path,
	}.SignWithSharedKey(credential)
	if err != nil {
		return "", fmt.Errorf("failed to generate SAS token: %w", err)
	}

	blobURL := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s",
		b.accountName, b.containerName, url.PathEscape(path))

	return fmt.Sprintf("%s?%s", blobURL, sasQueryParams.Encode()), nil
}
