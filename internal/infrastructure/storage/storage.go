package storage

import (
	"context"
	"fmt"

	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	infraconfig "github.com/assetflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New returns the backend named by cfg.Provider. The s3 backend makes sure
// its bucket exists before returning.
func New(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (appcatalog.ObjectStorage, error) {
	switch cfg.Provider {
	case "", "stub", "memory":
		logger.Warn("Using in-memory attachment storage; uploads are lost on restart")
		return NewMemoryObjectStorage(), nil
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Attachment storage ready", zap.String("bucket", s.Bucket()))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
