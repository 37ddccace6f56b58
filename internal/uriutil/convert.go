// Package uriutil converts between file:// document URIs and paths, and
// computes the workspace-relative paths used for exclude matching.
package uriutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

const fileScheme = "file://"

// IsFileURI reports whether uri uses the file scheme. Untitled buffers and
// virtual documents never resolve configuration from disk.
func IsFileURI(uri string) bool {
	return strings.HasPrefix(uri, fileScheme)
}

// PathToURI converts a file system path to a file:// URI with each path
// segment percent-encoded.
//
//	/home/user/a b.css -> file:///home/user/a%20b.css
//	C:\proj\a.vue      -> file:///C:/proj/a.vue
func PathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if runtime.GOOS == "windows" && strings.HasPrefix(abs, `\\`) {
		// UNC: \\server\share -> file://server/share
		return fileScheme + escapeSegments(filepath.ToSlash(strings.TrimPrefix(abs, `\\`)))
	}

	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return fileScheme + escapeSegments(abs)
}

func escapeSegments(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if seg != "" {
			segments[i] = url.PathEscape(seg)
		}
	}
	return strings.Join(segments, "/")
}

// URIToPath converts a file:// URI to an OS path. Anything that does not
// parse as a file URI is stripped of its scheme prefix leniently.
func URIToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return lenientPath(uri)
	}

	if parsed.Host != "" {
		if runtime.GOOS == "windows" {
			return `\\` + parsed.Host + strings.ReplaceAll(parsed.Path, "/", `\`)
		}
		return parsed.Host + parsed.Path
	}

	return filepath.FromSlash(trimDriveSlash(parsed.Path))
}

func lenientPath(uri string) string {
	p := strings.TrimPrefix(uri, fileScheme)
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	return filepath.FromSlash(trimDriveSlash(p))
}

// /C:/proj -> C:/proj
func trimDriveSlash(p string) string {
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		return p[1:]
	}
	return p
}

// RelativeSlashPath returns path relative to root using forward slashes,
// the form exclude globs are written in. The second result is false when
// path lies outside root or either is empty.
func RelativeSlashPath(root, path string) (string, bool) {
	if root == "" || path == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
