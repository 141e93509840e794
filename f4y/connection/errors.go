package connection

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"syscall"
)

// Error taxonomy for connection and remote operations.
//
// The split matters to callers: NotConnectedError and IllegalArgumentError are
// caller mistakes, ConnectionFailedError invalidates the session state, and
// CommandFailedError leaves the session usable.

// NotConnectedError reports an operation that requires a live transport when
// none exists.
type NotConnectedError struct {
	Op string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("connection: %s: not connected", e.Op)
}

// ConnectionFailedError reports that the transport dropped (or is inferred to
// have dropped) mid-operation. The connection state flags are reset before
// this error is returned.
type ConnectionFailedError struct {
	Op  string
	Err error
}

func (e *ConnectionFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connection: %s: connection failed", e.Op)
	}
	return fmt.Sprintf("connection: %s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionFailedError) Unwrap() error { return e.Err }

// CommandFailedError reports a transport I/O error while the connection is
// presumed still viable.
type CommandFailedError struct {
	Op   string
	Path string
	Err  error
}

func (e *CommandFailedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("connection: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("connection: %s %s failed: %v", e.Op, e.Path, e.Err)
}

func (e *CommandFailedError) Unwrap() error { return e.Err }

// RemoteProtocolError reports a server-side rejection during an upload or
// download, distinct from a plain local I/O failure.
type RemoteProtocolError struct {
	Op   string
	Path string
	Code int
	Err  error
}

func (e *RemoteProtocolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("connection: %s %s rejected by server (code %d): %v", e.Op, e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("connection: %s %s rejected by server: %v", e.Op, e.Path, e.Err)
}

func (e *RemoteProtocolError) Unwrap() error { return e.Err }

// IllegalArgumentError reports a structurally invalid call, e.g. the wrong
// File variant handed to a FileSystem. Never retried.
type IllegalArgumentError struct {
	Reason string
}

func (e *IllegalArgumentError) Error() string {
	return fmt.Sprintf("illegal argument: %s", e.Reason)
}

// ErrFeatureUnsupported indicates the server does not implement an optional
// protocol feature (e.g. MLST). Callers fall back to a portable code path.
var ErrFeatureUnsupported = errors.New("connection: feature not supported by server")

// IsProtocolReject reports whether err is a server reply with an error code,
// as opposed to a transport-level failure. The optional code result is the FTP
// reply code.
func IsProtocolReject(err error) (int, bool) {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code, true
	}
	return 0, false
}

// IsNotFoundReply reports whether err is the server telling us the path does
// not exist (550-class reply).
func IsNotFoundReply(err error) bool {
	code, ok := IsProtocolReject(err)
	return ok && code == 550
}

// IsClosedConn reports whether err indicates the control connection itself is
// gone, which must reset the connected/loggedIn flags together.
func IsClosedConn(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Some transports surface the closed socket only as message text.
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection closed")
}
