// Package storage parses artifact storage URIs and derives the paths used to
// reach them, both on the local mount and over the file-store API.
package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// DBFSStoragePrefix is the scheme prefix of workspace file-store URIs.
const DBFSStoragePrefix = "dbfs:/"

// FileStoreMount is the HTTP path prefix under which the file-store API
// exposes file endpoints.
const FileStoreMount = "/dbfs"

// StorageType is a string enum for storage type.
type StorageType string

const (
	// StorageTypeDBFS is the value for workspace file-store storage.
	StorageTypeDBFS StorageType = "DBFS"
	// StorageTypeLocal is the value for plain local paths.
	StorageTypeLocal StorageType = "LOCAL"
)

// GetStorageType returns the storage type for the given artifact URI.
func GetStorageType(uri string) (StorageType, error) {
	switch {
	case strings.HasPrefix(uri, DBFSStoragePrefix):
		return StorageTypeDBFS, nil
	case strings.HasPrefix(uri, "/"):
		return StorageTypeLocal, nil
	default:
		return "", fmt.Errorf("unsupported storage URI: %s", uri)
	}
}

// StripPrefix removes prefix from s if present.
func StripPrefix(s, prefix string) string {
	return strings.TrimPrefix(s, prefix)
}

// stripDBFSRoot normalizes an artifact root URI to the path below the scheme:
// "dbfs:/registry/run1/" becomes "registry/run1".
func stripDBFSRoot(artifactRoot string) string {
	root := strings.TrimSuffix(artifactRoot, "/")
	root = StripPrefix(root, DBFSStoragePrefix)
	return strings.TrimPrefix(root, "/")
}

// FileEndpoint derives the file-store API endpoint for an artifact path under
// an artifact root. The result always uses forward slashes and has redundant
// slashes collapsed.
//
// FileEndpoint("dbfs:/registry/run1", "model/MLmodel")
// returns "/dbfs/registry/run1/model/MLmodel".
func FileEndpoint(artifactRoot, artifactPath string) string {
	return path.Join(FileStoreMount, stripDBFSRoot(artifactRoot), strings.TrimPrefix(artifactPath, "/"))
}

// StorePath normalizes an artifact root URI to the absolute file-store path
// used by the directory-listing API: "dbfs:/registry/run1" becomes
// "/registry/run1".
func StorePath(artifactRoot string) string {
	return "/" + stripDBFSRoot(artifactRoot)
}

// LocalPath resolves the local filesystem directory corresponding to an
// artifact path under an artifact root, given the mount point of the file
// store on the local host.
func LocalPath(mountPoint, artifactRoot, artifactPath string) string {
	return filepath.Join(mountPoint, stripDBFSRoot(artifactRoot), strings.TrimPrefix(artifactPath, "/"))
}

// ToSlashPath converts a host-native relative path to a forward-slash
// artifact path.
func ToSlashPath(relPath string) string {
	return filepath.ToSlash(relPath)
}

// JoinArtifactPath joins artifact path segments with forward slashes,
// dropping empty segments.
func JoinArtifactPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return path.Join(parts...)
}
