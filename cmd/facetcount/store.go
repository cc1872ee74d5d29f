package main

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/facetcount/blobstore"
	miniostore "github.com/hupe1980/facetcount/blobstore/minio"
	s3store "github.com/hupe1980/facetcount/blobstore/s3"
	"github.com/hupe1980/facetcount/internal/config"
)

func openStore(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	switch cfg.Kind {
	case "local":
		return blobstore.NewLocalStore(cfg.Path), nil

	case "s3":
		opts := []s3store.Option{s3store.WithPathStyle(cfg.PathStyle)}
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Endpoint))
		}
		return s3store.New(ctx, cfg.Bucket, opts...)

	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		return miniostore.NewStore(client, cfg.Bucket, ""), nil

	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}
