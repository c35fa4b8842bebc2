// Package pathutil provides the lexical path handling used by the virtual
// filesystem: normalization of client-supplied paths, host filesystem probes,
// and the long-listing line format sent over the data channel.
package pathutil

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

// Normalize collapses a slash-separated path into its canonical lexical form.
//
// Segments are processed left to right against a stack: ".." pops the last
// kept segment (and is discarded at the top), "." and empty segments are
// skipped, everything else is pushed. The result never starts with "/", never
// contains "." or ".." segments, and never contains empty segments. A path
// consisting only of separators and parent references normalizes to "".
//
// This deliberately differs from path.Clean: ".." can never escape the left
// edge, which is what makes the chroot-by-rewrite guarantee hold when the
// result is appended to a user's native home directory.
func Normalize(p string) string {
	var kept []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			// separator noise
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, "/")
}

// IsDirectory reports whether the host path exists and is a directory.
func IsDirectory(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// IsRegularFile reports whether the host path exists and is a regular file.
func IsRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// LongListingLine formats one directory entry for LIST output:
// mode, link count, size, and modification time, TAB-separated, followed by
// the entry name. The mode column is the usual 10-character "[d-]rwxrwxrwx"
// string derived from the file type and permission triples.
func LongListingLine(info os.FileInfo, name string) string {
	return fmt.Sprintf("%s\t%d\t%d\t%s\t%s",
		modeString(info),
		linkCount(info),
		info.Size(),
		info.ModTime().Local().Format("Jan 02 15:04"),
		name,
	)
}

func modeString(info os.FileInfo) string {
	var b strings.Builder
	if info.IsDir() {
		b.WriteByte('d')
	} else {
		b.WriteByte('-')
	}

	perm := info.Mode().Perm()
	flags := "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b.WriteByte(flags[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// linkCount extracts the hard-link count from the underlying stat when the
// platform exposes one, falling back to 1.
func linkCount(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Nlink)
	}
	return 1
}
