package connection

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"
)

// EndpointDetails identifies one remote endpoint. Two connections with equal
// details address the same logical session.
type EndpointDetails struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Address returns the host:port dial address.
func (d EndpointDetails) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// EntryKind classifies a remote directory entry.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindSymbolicLink
)

// RemoteEntry describes one entry of a remote listing.
//
// Mode is an octal permission string ("644") when the server reports one and
// empty otherwise; plain LIST output on most servers does not carry it through
// the transport.
type RemoteEntry struct {
	Name    string
	Kind    EntryKind
	Size    int64
	Target  string // symbolic link target, possibly relative
	ModTime time.Time
	Mode    string
}

// IsPseudo reports whether the entry is a "." or ".." placeholder. These must
// never surface as File entries.
func (e RemoteEntry) IsPseudo() bool {
	return e.Name == "." || e.Name == ".."
}

// Transport is the wire-protocol collaborator behind a Connection. It exposes
// primitive operations only; session state lives in Connection.
//
// Implementations must return *textproto.Error values for server rejections so
// that IsProtocolReject can tell them apart from transport failures.
type Transport interface {
	Login(user, password string) error
	Logout() error
	Quit() error
	Noop() error

	CurrentDir() (string, error)
	ChangeDir(path string) error

	List(path string) ([]RemoteEntry, error)
	// GetEntry stats a single path via the machine-readable MLST command.
	// Returns ErrFeatureUnsupported when the server lacks MLST.
	GetEntry(path string) (*RemoteEntry, error)
	FileSize(path string) (int64, error)
	ModTime(path string) (time.Time, error)

	Retrieve(path string, w io.Writer) error
	Store(path string, r io.Reader) error

	MakeDir(path string) error
	Delete(path string) error
	RemoveDir(path string) error
	Rename(from, to string) error
}

// Dialer opens a Transport for the given endpoint. Injected so tests can
// substitute a mock transport.
type Dialer func(details EndpointDetails, timeout time.Duration) (Transport, error)

// DialFTP is the production Dialer backed by jlaffaye/ftp.
func DialFTP(details EndpointDetails, timeout time.Duration) (Transport, error) {
	conn, err := ftp.Dial(details.Address(), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return &ftpTransport{conn: conn}, nil
}

// ftpTransport adapts *ftp.ServerConn to the Transport interface.
type ftpTransport struct {
	conn *ftp.ServerConn
}

func (t *ftpTransport) Login(user, password string) error { return t.conn.Login(user, password) }
func (t *ftpTransport) Logout() error                     { return t.conn.Logout() }
func (t *ftpTransport) Quit() error                       { return t.conn.Quit() }
func (t *ftpTransport) Noop() error                       { return t.conn.NoOp() }

func (t *ftpTransport) CurrentDir() (string, error)  { return t.conn.CurrentDir() }
func (t *ftpTransport) ChangeDir(path string) error  { return t.conn.ChangeDir(path) }
func (t *ftpTransport) FileSize(path string) (int64, error) { return t.conn.FileSize(path) }

func (t *ftpTransport) ModTime(path string) (time.Time, error) { return t.conn.GetTime(path) }

func (t *ftpTransport) List(path string) ([]RemoteEntry, error) {
	raw, err := t.conn.List(path)
	if err != nil {
		return nil, err
	}
	entries := make([]RemoteEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, convertEntry(e))
	}
	return entries, nil
}

func (t *ftpTransport) GetEntry(path string) (*RemoteEntry, error) {
	raw, err := t.conn.GetEntry(path)
	if err != nil {
		if code, ok := IsProtocolReject(err); ok && (code == 500 || code == 502 || code == 504) {
			return nil, ErrFeatureUnsupported
		}
		return nil, err
	}
	entry := convertEntry(raw)
	return &entry, nil
}

func (t *ftpTransport) Retrieve(path string, w io.Writer) error {
	resp, err := t.conn.Retr(path)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, resp)
	closeErr := resp.Close()
	if copyErr != nil {
		return fmt.Errorf("retrieve %s: %w", path, copyErr)
	}
	return closeErr
}

func (t *ftpTransport) Store(path string, r io.Reader) error { return t.conn.Stor(path, r) }

func (t *ftpTransport) MakeDir(path string) error      { return t.conn.MakeDir(path) }
func (t *ftpTransport) Delete(path string) error       { return t.conn.Delete(path) }
func (t *ftpTransport) RemoveDir(path string) error    { return t.conn.RemoveDir(path) }
func (t *ftpTransport) Rename(from, to string) error   { return t.conn.Rename(from, to) }

func convertEntry(e *ftp.Entry) RemoteEntry {
	entry := RemoteEntry{
		Name:    e.Name,
		Size:    int64(e.Size),
		Target:  e.Target,
		ModTime: e.Time,
	}
	switch e.Type {
	case ftp.EntryTypeFolder:
		entry.Kind = KindDirectory
	case ftp.EntryTypeLink:
		entry.Kind = KindSymbolicLink
	default:
		entry.Kind = KindFile
	}
	return entry
}

var _ Transport = (*ftpTransport)(nil)
