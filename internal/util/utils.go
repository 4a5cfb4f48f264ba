package util

import (
	"path/filepath"
)

func ToRelativePath(rootPath, fullPath string) string {
	relPath, err := filepath.Rel(rootPath, fullPath)
	if err != nil {
		return fullPath
	}
	return relPath
}

func Ptr[T any](v T) *T { return &v }
