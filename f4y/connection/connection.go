package connection

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	internal "github.com/ZanzyTHEbar/ftp4you/f4y"
)

// Connection is one logical session to a remote endpoint. It owns the two
// state flags and enforces their coupling: loggedIn is never true while
// connected is false.
//
// All exported methods serialize on an internal mutex, so a foreground
// transfer and the health monitor's probe never race on the same transport.
type Connection struct {
	mu          sync.Mutex
	details     EndpointDetails
	dial        Dialer
	dialTimeout time.Duration
	logger      *slog.Logger

	transport Transport
	lookup    *Lookup
	connected bool
	loggedIn  bool
}

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithDialer substitutes the transport factory, used by tests.
func WithDialer(d Dialer) Option {
	return func(c *Connection) { c.dial = d }
}

// WithDialTimeout overrides the default dial timeout.
func WithDialTimeout(t time.Duration) Option {
	return func(c *Connection) { c.dialTimeout = t }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// NewConnection creates a disconnected Connection for the given endpoint.
func NewConnection(details EndpointDetails, opts ...Option) *Connection {
	if details.Port == 0 {
		details.Port = internal.DefaultFTPPort
	}
	c := &Connection{
		details:     details,
		dial:        DialFTP,
		dialTimeout: internal.DefaultDialTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Details returns the endpoint this connection addresses.
func (c *Connection) Details() EndpointDetails { return c.details }

// IsConnected reports whether the transport is open.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// IsLoggedIn reports whether the session is authenticated.
func (c *Connection) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

// Connect opens the transport. Returns false without error when already
// connected. A server rejection surfaces as ConnectionFailedError and leaves
// the state unconnected; a plain transport error surfaces as
// CommandFailedError.
func (c *Connection) Connect() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return false, nil
	}
	t, err := c.dial(c.details, c.dialTimeout)
	if err != nil {
		if code, ok := IsProtocolReject(err); ok {
			c.logger.Warn("server rejected connection", "host", c.details.Host, "code", code)
			return false, &ConnectionFailedError{Op: "connect", Err: err}
		}
		return false, &CommandFailedError{Op: "connect", Err: err}
	}
	c.transport = t
	c.lookup = NewLookup(t)
	c.connected = true
	c.logger.Debug("connected", "host", c.details.Host, "port", c.details.Port)
	return true, nil
}

// Login authenticates the session. Requires a live transport; returns false
// without error when already logged in. A dropped transport during login
// resets both state flags together.
func (c *Connection) Login() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return false, &NotConnectedError{Op: "login"}
	}
	if c.loggedIn {
		return false, nil
	}
	if err := c.transport.Login(c.details.User, c.details.Password); err != nil {
		if IsClosedConn(err) {
			c.reset()
			return false, &ConnectionFailedError{Op: "login", Err: err}
		}
		return false, &CommandFailedError{Op: "login", Err: err}
	}
	c.loggedIn = true
	c.logger.Debug("logged in", "host", c.details.Host, "user", c.details.User)
	return true, nil
}

// Logout ends the authenticated session without closing the transport.
// Returns false without error when not logged in. Called without a transport
// it still clears the loggedIn flag and reports not-connected.
func (c *Connection) Logout() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		c.loggedIn = false
		return false, &NotConnectedError{Op: "logout"}
	}
	if !c.loggedIn {
		return false, nil
	}
	if err := c.transport.Logout(); err != nil {
		if IsClosedConn(err) {
			c.reset()
			return false, &ConnectionFailedError{Op: "logout", Err: err}
		}
		return false, &CommandFailedError{Op: "logout", Err: err}
	}
	c.loggedIn = false
	return true, nil
}

// Disconnect closes the transport, logging out first when needed. State is
// cleared even when the close reports the socket already gone; only a
// recoverable command failure during close leaves the connection intact for a
// retry.
func (c *Connection) Disconnect() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return false, nil
	}
	if c.loggedIn {
		if err := c.transport.Logout(); err != nil && IsClosedConn(err) {
			c.reset()
			return true, nil
		}
		c.loggedIn = false
	}
	if err := c.transport.Quit(); err != nil {
		if IsClosedConn(err) {
			c.reset()
			return true, nil
		}
		return false, &CommandFailedError{Op: "disconnect", Err: err}
	}
	c.reset()
	c.logger.Debug("disconnected", "host", c.details.Host)
	return true, nil
}

// reset clears both state flags together. Callers hold the mutex.
func (c *Connection) reset() {
	c.connected = false
	c.loggedIn = false
	c.transport = nil
	c.lookup = nil
}

// session applies the access rule shared by every query operation: a missing
// transport is an error, a missing login is a silent refusal.
func (c *Connection) session(op string) (ok bool, err error) {
	if !c.connected {
		return false, &NotConnectedError{Op: op}
	}
	if !c.loggedIn {
		return false, nil
	}
	return true, nil
}

// command translates a transport error for a non-transfer operation. A closed
// control connection resets both flags.
func (c *Connection) command(op, pth string, err error) error {
	if IsClosedConn(err) {
		c.reset()
		return &ConnectionFailedError{Op: op, Err: err}
	}
	return &CommandFailedError{Op: op, Path: pth, Err: err}
}

// transfer translates a transport error during an upload or download, where a
// server rejection is distinguished from a local I/O failure.
func (c *Connection) transfer(op, pth string, err error) error {
	if IsClosedConn(err) {
		c.reset()
		return &ConnectionFailedError{Op: op, Err: err}
	}
	if code, ok := IsProtocolReject(err); ok {
		return &RemoteProtocolError{Op: op, Path: pth, Code: code, Err: err}
	}
	return &CommandFailedError{Op: op, Path: pth, Err: err}
}

// GetFile fetches the descriptor for a single remote path, or nil when the
// path does not exist.
func (c *Connection) GetFile(pth string) (*RemoteEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("getFile"); !ok {
		return nil, err
	}
	entry, err := c.lookup.GetFileDescriptor(pth)
	if err != nil {
		return nil, c.command("getFile", pth, err)
	}
	return entry, nil
}

// ListFiles lists a remote directory. Pseudo-entries ("." and "..") are
// filtered out. Returns nil without error when not logged in.
func (c *Connection) ListFiles(pth string) ([]RemoteEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("listFiles"); !ok {
		return nil, err
	}
	entries, err := c.lookup.ListDirectory(pth)
	if err != nil {
		return nil, c.command("listFiles", pth, err)
	}
	return entries, nil
}

// PathExists reports whether a remote path exists. With isDirectoryCheck set
// the answer comes from a change-directory probe instead of listing metadata.
func (c *Connection) PathExists(pth string, isDirectoryCheck bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("pathExists"); !ok {
		return false, err
	}
	exists, err := c.lookup.PathExists(pth, isDirectoryCheck)
	if err != nil {
		return false, c.command("pathExists", pth, err)
	}
	return exists, nil
}

// FileSize returns a remote file's size, or -1 when the path does not exist
// or the session is not logged in.
func (c *Connection) FileSize(pth string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("fileSize"); !ok {
		return -1, err
	}
	size, err := c.lookup.GetSize(pth)
	if err != nil {
		return -1, c.command("fileSize", pth, err)
	}
	return size, nil
}

// ModificationTime returns a remote file's modification time, or the zero
// time when the path does not exist or the session is not logged in.
func (c *Connection) ModificationTime(pth string) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("modificationTime"); !ok {
		return time.Time{}, err
	}
	mt, err := c.lookup.GetModificationTime(pth)
	if err != nil {
		return time.Time{}, c.command("modificationTime", pth, err)
	}
	return mt, nil
}

// SendNoop sends a liveness probe. Used by the health monitor.
func (c *Connection) SendNoop() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("noop"); !ok {
		return false, err
	}
	if err := c.transport.Noop(); err != nil {
		return false, c.command("noop", "", err)
	}
	return true, nil
}

// UploadFile stores a local file into a remote directory. Refusals (missing
// local source, source is a directory, missing remote directory) return false
// without error; only failures during the actual transfer raise one.
func (c *Connection) UploadFile(localPath, remoteDir string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("upload"); !ok {
		return false, err
	}
	fi, err := os.Stat(localPath)
	if err != nil || fi.IsDir() {
		return false, nil
	}
	dirOK, err := c.lookup.PathExists(remoteDir, true)
	if err != nil {
		return false, c.command("upload", remoteDir, err)
	}
	if !dirOK {
		return false, nil
	}
	src, err := os.Open(localPath)
	if err != nil {
		return false, &CommandFailedError{Op: "upload", Path: localPath, Err: err}
	}
	defer src.Close()
	target := path.Join(remoteDir, filepath.Base(localPath))
	if err := c.transport.Store(target, src); err != nil {
		return false, c.transfer("upload", target, err)
	}
	c.logger.Debug("uploaded file", "local", localPath, "remote", target)
	return true, nil
}

// DownloadFile retrieves a remote file into a local directory. Refusals
// (missing remote source, source is a directory, local target not a
// directory) return false without error.
func (c *Connection) DownloadFile(remotePath, localDir string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("download"); !ok {
		return false, err
	}
	entry, err := c.lookup.GetFileDescriptor(remotePath)
	if err != nil {
		return false, c.command("download", remotePath, err)
	}
	if entry == nil || entry.Kind == KindDirectory {
		return false, nil
	}
	fi, err := os.Stat(localDir)
	if err != nil || !fi.IsDir() {
		return false, nil
	}
	target := filepath.Join(localDir, path.Base(remotePath))
	dst, err := os.Create(target)
	if err != nil {
		return false, &CommandFailedError{Op: "download", Path: target, Err: err}
	}
	if err := c.transport.Retrieve(remotePath, dst); err != nil {
		dst.Close()
		os.Remove(target)
		return false, c.transfer("download", remotePath, err)
	}
	if err := dst.Close(); err != nil {
		return false, &CommandFailedError{Op: "download", Path: target, Err: err}
	}
	c.logger.Debug("downloaded file", "remote", remotePath, "local", target)
	return true, nil
}

// MakeDirectory creates a remote directory. Returns false without error when
// the path already exists as a file or directory.
func (c *Connection) MakeDirectory(pth string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("makeDirectory"); !ok {
		return false, err
	}
	exists, err := c.lookup.PathExists(pth, false)
	if err != nil {
		return false, c.command("makeDirectory", pth, err)
	}
	if exists {
		return false, nil
	}
	if err := c.transport.MakeDir(pth); err != nil {
		return false, c.command("makeDirectory", pth, err)
	}
	return true, nil
}

// RemoveFile deletes a single remote file. A not-found reply is a refusal,
// not an error.
func (c *Connection) RemoveFile(pth string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("removeFile"); !ok {
		return false, err
	}
	if err := c.transport.Delete(pth); err != nil {
		if IsNotFoundReply(err) {
			return false, nil
		}
		return false, c.command("removeFile", pth, err)
	}
	return true, nil
}

// RemoveDirectory deletes an empty remote directory. A not-found reply is a
// refusal, not an error.
func (c *Connection) RemoveDirectory(pth string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("removeDirectory"); !ok {
		return false, err
	}
	if err := c.transport.RemoveDir(pth); err != nil {
		if IsNotFoundReply(err) {
			return false, nil
		}
		return false, c.command("removeDirectory", pth, err)
	}
	return true, nil
}

// RenameFile renames a remote path. A not-found reply for the source is a
// refusal, not an error.
func (c *Connection) RenameFile(from, to string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, err := c.session("renameFile"); !ok {
		return false, err
	}
	if err := c.transport.Rename(from, to); err != nil {
		if IsNotFoundReply(err) {
			return false, nil
		}
		return false, c.command("renameFile", from, err)
	}
	return true, nil
}
