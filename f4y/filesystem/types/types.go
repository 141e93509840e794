package types

import (
	"time"

	"github.com/google/uuid"
)

// FileKind classifies a filesystem entry.
type FileKind string

const (
	KindNormal       FileKind = "file"
	KindDirectory    FileKind = "directory"
	KindSymbolicLink FileKind = "symlink"
	KindUnknown      FileKind = "unknown"
)

// Descriptor is the last-known state of a remote entry. Valid marks whether
// the cached fields may be consulted at all; callers that need certainty must
// refresh first.
type Descriptor struct {
	Valid       bool      `json:"valid"`
	Exists      bool      `json:"exists"`
	Kind        FileKind  `json:"kind"`
	Size        int64     `json:"size"`
	Permissions string    `json:"permissions,omitempty"` // octal, e.g. "644"; empty when unreported
	ModTime     time.Time `json:"mod_time"`
	LinkTarget  string    `json:"link_target,omitempty"` // possibly relative
}

// Invalidate clears the descriptor to a known-empty state instead of leaving
// stale data behind.
func (d *Descriptor) Invalidate() {
	*d = Descriptor{}
}

// CopyMoveOperation is the closed set of source/destination domain
// combinations for a copy or move.
type CopyMoveOperation int

const (
	OperationInvalid CopyMoveOperation = iota
	LocalToLocal
	LocalToRemote
	RemoteToLocal
	RemoteToRemote
)

func (op CopyMoveOperation) String() string {
	switch op {
	case LocalToLocal:
		return "local_to_local"
	case LocalToRemote:
		return "local_to_remote"
	case RemoteToLocal:
		return "remote_to_local"
	case RemoteToRemote:
		return "remote_to_remote"
	}
	return "invalid"
}

// ClassifyOperation derives the operation kind from the domains of source and
// destination.
func ClassifyOperation(srcRemote, dstRemote bool) CopyMoveOperation {
	switch {
	case !srcRemote && !dstRemote:
		return LocalToLocal
	case !srcRemote && dstRemote:
		return LocalToRemote
	case srcRemote && !dstRemote:
		return RemoteToLocal
	default:
		return RemoteToRemote
	}
}

// OperationError is one non-fatal per-item failure recorded during a bulk
// operation.
type OperationError struct {
	ID         uuid.UUID `json:"id"`
	Message    string    `json:"message"`
	SourcePath string    `json:"source_path"`
	DestPath   string    `json:"dest_path,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Err        error     `json:"-"`
}

// NewOperationError records a per-item failure with a fresh ID.
func NewOperationError(message, sourcePath, destPath string, err error) *OperationError {
	return &OperationError{
		ID:         uuid.New(),
		Message:    message,
		SourcePath: sourcePath,
		DestPath:   destPath,
		Timestamp:  time.Now(),
		Err:        err,
	}
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error { return e.Err }
