package fingerprint

import (
	"path"
)

// concatenatePaths joins a non-absolute name onto base and collapses "."
// and ".." segments. Absolute names ignore base and are normalized as-is.
func concatenatePaths(base, name string) string {
	if name == "" {
		if base == "" {
			return ""
		}
		return path.Clean(base)
	}
	if path.IsAbs(name) || base == "" {
		return path.Clean(name)
	}
	return path.Clean(path.Join(base, name))
}

// splitDirectory returns the prefix of the last '/' in name, or name
// unchanged when there is none.
func splitDirectory(name string) string {
	if pos := lastSlash(name); pos >= 0 {
		return name[:pos]
	}
	return name
}

// splitFilename returns the suffix of the last '/' in name, or name
// unchanged when there is none.
func splitFilename(name string) string {
	if pos := lastSlash(name); pos >= 0 {
		return name[pos+1:]
	}
	return name
}

func lastSlash(name string) int {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return i
		}
	}
	return -1
}
