package options

import (
	"runtime"
)

// FileOptions configures metadata behavior of File implementations. The two
// follow-symlink flags are independent: a client may want link sizes resolved
// while still showing the link's own permission bits.
type FileOptions struct {
	FollowSymlinksForSize        bool // size of the link target instead of the link
	FollowSymlinksForPermissions bool // permissions of the link target instead of the link
}

// DefaultFileOptions returns the conservative defaults: links are reported as
// themselves.
func DefaultFileOptions() FileOptions {
	return FileOptions{}
}

// CopyOptions configures copy operations.
type CopyOptions struct {
	FollowSymlinks bool     // follow links while walking a local source tree
	IgnorePatterns []string // gitignore style patterns skipped during the walk
}

// DefaultCopyOptions returns copy defaults matching interactive client
// behavior: links are followed on same-system copies.
func DefaultCopyOptions() CopyOptions {
	return CopyOptions{FollowSymlinks: true}
}

// MoveOptions configures move operations.
type MoveOptions struct {
	IgnorePatterns []string // gitignore style patterns skipped during the walk
}

// DefaultMoveOptions returns move defaults.
func DefaultMoveOptions() MoveOptions {
	return MoveOptions{}
}

// ScanOptions configures the concurrent local tree scan that precedes bulk
// transfers.
type ScanOptions struct {
	WorkerCount    int      // concurrent directory readers
	IncludeHidden  bool     // include dotfiles
	IgnorePatterns []string // gitignore style patterns
	IgnoreFile     string   // per-tree ignore file name, "" disables
}

// DefaultScanOptions returns scan defaults sized for I/O bound directory
// reads.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		WorkerCount:   min(max(runtime.NumCPU()*2, 4), 32),
		IncludeHidden: true,
	}
}
