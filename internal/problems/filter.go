package problems

import (
	"path/filepath"
	"strings"
)

// Ext is the problem file extension.
const Ext = ".ntq"

// IsProblemFile reports whether name is a visible problem file.
func IsProblemFile(name string) bool {
	base := filepath.Base(name)
	if base == "" || strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), Ext)
}

// NameOf strips the directory and extension from a problem file name.
func NameOf(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
