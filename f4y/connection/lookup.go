package connection

import (
	"errors"
	"fmt"
	"path"
	"time"
)

// Lookup answers existence, listing and metadata questions over a live
// transport. It prefers the machine-readable MLST stat and falls back to
// listing the parent directory when the server lacks it; the fallback is
// latched after the first unsupported reply so the probe happens once.
//
// Lookup holds no session state and performs no state mutation. Errors from
// the transport pass through unchanged.
type Lookup struct {
	t           Transport
	disableMLST bool
}

func NewLookup(t Transport) *Lookup {
	return &Lookup{t: t}
}

// GetFileDescriptor returns the entry for a single path, or nil when the path
// does not exist. The root directory always yields a synthetic entry since no
// parent can be listed for it.
func (l *Lookup) GetFileDescriptor(pth string) (*RemoteEntry, error) {
	pth = path.Clean(pth)
	if pth == "/" || pth == "." {
		return &RemoteEntry{Name: "/", Kind: KindDirectory}, nil
	}
	if !l.disableMLST {
		entry, err := l.t.GetEntry(pth)
		switch {
		case err == nil:
			return entry, nil
		case errors.Is(err, ErrFeatureUnsupported):
			l.disableMLST = true
		case IsNotFoundReply(err):
			return nil, nil
		default:
			return nil, err
		}
	}
	return l.findInParent(pth)
}

// findInParent lists the parent directory and filters by name. This is also
// the only way to see a symbolic link as a link, since statting a link path
// directly follows it.
func (l *Lookup) findInParent(pth string) (*RemoteEntry, error) {
	parent := path.Dir(pth)
	name := path.Base(pth)
	entries, err := l.t.List(parent)
	if err != nil {
		if IsNotFoundReply(err) {
			return nil, nil
		}
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// ListDirectory lists a directory, dropping "." and ".." pseudo-entries.
func (l *Lookup) ListDirectory(pth string) ([]RemoteEntry, error) {
	raw, err := l.t.List(pth)
	if err != nil {
		return nil, err
	}
	entries := make([]RemoteEntry, 0, len(raw))
	for _, e := range raw {
		if e.IsPseudo() {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// PathExists reports whether a path exists. With isDirectoryCheck set the
// answer comes from a change-directory probe (enter the path, then return to
// the saved working directory), since listing metadata mis-reports directory
// status for links and pseudo-entries.
func (l *Lookup) PathExists(pth string, isDirectoryCheck bool) (bool, error) {
	if isDirectoryCheck {
		return l.probeDirectory(pth)
	}
	entry, err := l.GetFileDescriptor(pth)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

func (l *Lookup) probeDirectory(pth string) (bool, error) {
	origin, err := l.t.CurrentDir()
	if err != nil {
		return false, err
	}
	if err := l.t.ChangeDir(pth); err != nil {
		if _, ok := IsProtocolReject(err); ok {
			return false, nil
		}
		return false, err
	}
	if err := l.t.ChangeDir(origin); err != nil {
		return true, fmt.Errorf("restore working directory %s: %w", origin, err)
	}
	return true, nil
}

// GetSize returns the size of a path, or -1 when it does not exist. The SIZE
// command is tried first; servers that reject it fall back to the listing
// descriptor.
func (l *Lookup) GetSize(pth string) (int64, error) {
	size, err := l.t.FileSize(pth)
	if err == nil {
		return size, nil
	}
	if _, ok := IsProtocolReject(err); !ok {
		return -1, err
	}
	entry, err := l.GetFileDescriptor(pth)
	if err != nil {
		return -1, err
	}
	if entry == nil {
		return -1, nil
	}
	return entry.Size, nil
}

// GetModificationTime returns the modification time of a path, or the zero
// time when it does not exist. MDTM is tried first with the same listing
// fallback as GetSize.
func (l *Lookup) GetModificationTime(pth string) (time.Time, error) {
	mt, err := l.t.ModTime(pth)
	if err == nil {
		return mt, nil
	}
	if _, ok := IsProtocolReject(err); !ok {
		return time.Time{}, err
	}
	entry, err := l.GetFileDescriptor(pth)
	if err != nil {
		return time.Time{}, err
	}
	if entry == nil {
		return time.Time{}, nil
	}
	return entry.ModTime, nil
}

// GetFileStatus renders a one-line, long-listing style status for a path, or
// "" when the path does not exist.
func (l *Lookup) GetFileStatus(pth string) (string, error) {
	entry, err := l.GetFileDescriptor(pth)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", nil
	}
	kind := "-"
	switch entry.Kind {
	case KindDirectory:
		kind = "d"
	case KindSymbolicLink:
		kind = "l"
	}
	name := entry.Name
	if entry.Kind == KindSymbolicLink && entry.Target != "" {
		name = name + " -> " + entry.Target
	}
	return fmt.Sprintf("%s %12d %s %s", kind, entry.Size, entry.ModTime.Format("Jan _2 15:04"), name), nil
}

// GetStatus reports the current working directory of the transport, the
// cheapest whole-session status probe available.
func (l *Lookup) GetStatus() (string, error) {
	return l.t.CurrentDir()
}
