package storage

import (
	"fmt"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/storage/filesystem"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/storage/garage"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"
)

// NewStorage crée une nouvelle instance de storage basée sur la configuration
func NewStorage(config *storage.StorageConfig) (storage.Storage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	switch config.Type {
	case "filesystem", "":
		return filesystem.NewFilesystemStorage(config.BasePath)
	case "garage", "s3":
		return garage.NewGarageStorage(config)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
