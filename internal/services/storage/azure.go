package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"
	"github.com/Jumpi96/pana/internal/models"
)

const azureBlockSize = 4 * 1024 * 1024

// Azure stores objects as block blobs in an Azure Storage container.
type Azure struct {
	container     azblob.ContainerURL
	containerName string
}

// NewAzure creates an Azure Blob backend authenticated with a shared key.
func NewAzure(cfg *models.AzureConfig) (*Azure, error) {
	if cfg == nil || cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, fmt.Errorf("azure account_name, account_key and container are required")
	}

	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Azure service URL: %w", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})
	service := azblob.NewServiceURL(*serviceURL, pipeline)

	return &Azure{
		container:     service.NewContainerURL(cfg.Container),
		containerName: cfg.Container,
	}, nil
}

// Put uploads body as a block blob.
func (b *Azure) Put(ctx context.Context, key string, body io.ReadSeeker, opts models.PutOptions) error {
	blob := b.container.NewBlockBlobURL(key)

	_, err := azblob.UploadStreamToBlockBlob(ctx, body, blob, azblob.UploadStreamToBlockBlobOptions{
		BufferSize: azureBlockSize,
		MaxBuffers: 4,
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{
			ContentType: opts.ContentType,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", b.URI(key), err)
	}
	return nil
}

// List walks every blob segment under prefix.
func (b *Azure) List(ctx context.Context, prefix string) ([]models.ObjectInfo, error) {
	var objects []models.ObjectInfo

	for marker := (azblob.Marker{}); marker.NotDone(); {
		resp, err := b.container.ListBlobsFlatSegment(ctx, marker, azblob.ListBlobsSegmentOptions{
			Prefix: prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list azure://%s/%s: %w", b.containerName, prefix, err)
		}

		for _, item := range resp.Segment.BlobItems {
			info := models.ObjectInfo{
				Key:          item.Name,
				LastModified: item.Properties.LastModified,
			}
			if item.Properties.ContentLength != nil {
				info.Size = *item.Properties.ContentLength
			}
			objects = append(objects, info)
		}

		marker = resp.NextMarker
	}

	return objects, nil
}

// Delete removes the blob and its snapshots.
func (b *Azure) Delete(ctx context.Context, key string) error {
	blob := b.container.NewBlockBlobURL(key)
	if _, err := blob.Delete(ctx, azblob.DeleteSnapshotsOptionInclude, azblob.BlobAccessConditions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", b.URI(key), err)
	}
	return nil
}

// URI returns azure://container/key.
func (b *Azure) URI(key string) string {
	return "azure://" + b.containerName + "/" + key
}
