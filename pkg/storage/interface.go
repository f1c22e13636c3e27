package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Storage définit l'interface pour le stockage de fichiers
type Storage interface {
	// Upload un fichier vers le storage
	Upload(ctx context.Context, path string, data io.Reader) error

	// Download un fichier depuis le storage
	Download(ctx context.Context, path string) (io.Reader, error)

	// Exists vérifie si un fichier existe
	Exists(ctx context.Context, path string) (bool, error)

	// Delete supprime un fichier
	Delete(ctx context.Context, path string) error

	// List liste les fichiers avec un préfixe donné
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL retourne l'URL d'accès à un fichier
	GetURL(ctx context.Context, path string) (string, error)
}

// StorageConfig contient la configuration du storage
type StorageConfig struct {
	Type      string `yaml:"type"`      // "filesystem" ou "garage"
	BasePath  string `yaml:"base_path"` // Pour filesystem
	Endpoint  string `yaml:"endpoint"`  // Pour S3/Garage
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// PublicPathMarker sépare l'hôte du chemin objet dans les anciennes URLs publiques
const PublicPathMarker = "/storage/v1/object/public/"

// Ref référence un objet stocké par bucket logique et chemin
type Ref struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

// Key retourne la clé de l'objet dans le backend
func (r Ref) Key() string {
	return strings.Trim(r.Bucket, "/") + "/" + strings.TrimPrefix(r.Path, "/")
}

// IsZero indique si la référence est vide
func (r Ref) IsZero() bool {
	return r.Bucket == "" && r.Path == ""
}

func (r Ref) String() string {
	return r.Key()
}

// ParsePublicURL reconstruit une Ref à partir d'une URL publique historique
// de la forme https://host/storage/v1/object/public/{bucket}/{path}
func ParsePublicURL(publicURL string) (Ref, error) {
	parts := strings.SplitN(publicURL, PublicPathMarker, 2)
	if len(parts) < 2 || parts[1] == "" {
		return Ref{}, fmt.Errorf("invalid file URL format: %s", publicURL)
	}
	bucket, path, ok := strings.Cut(parts[1], "/")
	if !ok || bucket == "" || path == "" {
		return Ref{}, fmt.Errorf("invalid file URL format: %s", publicURL)
	}
	return Ref{Bucket: bucket, Path: path}, nil
}

// ResolveRef retourne la référence stockée, ou à défaut celle déduite de l'URL publique
// (enregistrements antérieurs aux références)
func ResolveRef(bucket, path, publicURL string) (Ref, error) {
	if bucket != "" && path != "" {
		return Ref{Bucket: bucket, Path: path}, nil
	}
	return ParsePublicURL(publicURL)
}
