package filesystem

import (
	"io"
	"net/textproto"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/ftp4you/f4y/connection"
)

// fakeServer is an in-memory remote tree implementing connection.Transport.
// Calls are recorded so tests can assert on transfer order.
type fakeServer struct {
	mu     sync.Mutex
	dirs   map[string]bool
	files  map[string]string
	links  map[string]string // link path -> stored (possibly relative) target
	modes  map[string]string // path -> octal permissions
	mtimes map[string]time.Time
	cwd    string
	mlst   bool
	calls  []string

	storeErr map[string]error
	retrErr  map[string]error
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		dirs:     map[string]bool{"/": true},
		files:    map[string]string{},
		links:    map[string]string{},
		modes:    map[string]string{},
		mtimes:   map[string]time.Time{},
		cwd:      "/",
		mlst:     true,
		storeErr: map[string]error{},
		retrErr:  map[string]error{},
	}
}

func (s *fakeServer) addDir(p string) {
	for p != "/" {
		s.dirs[p] = true
		p = path.Dir(p)
	}
}

func (s *fakeServer) addFile(p, content string) {
	s.addDir(path.Dir(p))
	s.files[p] = content
}

func (s *fakeServer) addLink(p, target string) {
	s.addDir(path.Dir(p))
	s.links[p] = target
}

func (s *fakeServer) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeServer) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeServer) callIndex(call string) int {
	for i, c := range s.recorded() {
		if c == call {
			return i
		}
	}
	return -1
}

func reject(code int, msg string) error { return &textproto.Error{Code: code, Msg: msg} }

func (s *fakeServer) entryAt(p string) *connection.RemoteEntry {
	if s.dirs[p] && p != "/" {
		return &connection.RemoteEntry{Name: path.Base(p), Kind: connection.KindDirectory, Mode: s.modes[p], ModTime: s.mtimes[p]}
	}
	if content, ok := s.files[p]; ok {
		return &connection.RemoteEntry{Name: path.Base(p), Kind: connection.KindFile, Size: int64(len(content)), Mode: s.modes[p], ModTime: s.mtimes[p]}
	}
	if target, ok := s.links[p]; ok {
		return &connection.RemoteEntry{Name: path.Base(p), Kind: connection.KindSymbolicLink, Target: target, Size: int64(len(target)), Mode: s.modes[p]}
	}
	return nil
}

func (s *fakeServer) Login(string, string) error { return nil }
func (s *fakeServer) Logout() error              { return nil }
func (s *fakeServer) Quit() error                { return nil }
func (s *fakeServer) Noop() error                { return nil }

func (s *fakeServer) CurrentDir() (string, error) { return s.cwd, nil }

func (s *fakeServer) ChangeDir(p string) error {
	if !s.dirs[p] {
		return reject(550, "no such directory")
	}
	s.cwd = p
	return nil
}

func (s *fakeServer) List(p string) ([]connection.RemoteEntry, error) {
	s.record("list " + p)
	if !s.dirs[p] {
		return nil, reject(550, "no such directory")
	}
	var names []string
	seen := map[string]bool{}
	collect := func(candidate string) {
		if path.Dir(candidate) == p && !seen[candidate] {
			seen[candidate] = true
			names = append(names, candidate)
		}
	}
	for d := range s.dirs {
		collect(d)
	}
	for f := range s.files {
		collect(f)
	}
	for l := range s.links {
		collect(l)
	}
	sort.Strings(names)
	entries := make([]connection.RemoteEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, *s.entryAt(name))
	}
	return entries, nil
}

func (s *fakeServer) GetEntry(p string) (*connection.RemoteEntry, error) {
	s.record("mlst " + p)
	if !s.mlst {
		return nil, connection.ErrFeatureUnsupported
	}
	entry := s.entryAt(p)
	if entry == nil {
		return nil, reject(550, "no such file")
	}
	return entry, nil
}

func (s *fakeServer) FileSize(p string) (int64, error) {
	if content, ok := s.files[p]; ok {
		return int64(len(content)), nil
	}
	return 0, reject(550, "no such file")
}

func (s *fakeServer) ModTime(p string) (time.Time, error) {
	if mt, ok := s.mtimes[p]; ok {
		return mt, nil
	}
	return time.Time{}, reject(550, "no such file")
}

func (s *fakeServer) Retrieve(p string, w io.Writer) error {
	s.record("retr " + p)
	if err := s.retrErr[p]; err != nil {
		return err
	}
	content, ok := s.files[p]
	if !ok {
		return reject(550, "no such file")
	}
	_, err := io.Copy(w, strings.NewReader(content))
	return err
}

func (s *fakeServer) Store(p string, r io.Reader) error {
	s.record("stor " + p)
	if err := s.storeErr[p]; err != nil {
		return err
	}
	if !s.dirs[path.Dir(p)] {
		return reject(550, "no such directory")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.files[p] = string(data)
	s.mu.Unlock()
	return nil
}

func (s *fakeServer) MakeDir(p string) error {
	s.record("mkd " + p)
	if !s.dirs[path.Dir(p)] {
		return reject(550, "no such directory")
	}
	s.dirs[p] = true
	return nil
}

func (s *fakeServer) Delete(p string) error {
	s.record("dele " + p)
	if _, ok := s.files[p]; ok {
		delete(s.files, p)
		return nil
	}
	if _, ok := s.links[p]; ok {
		delete(s.links, p)
		return nil
	}
	return reject(550, "no such file")
}

func (s *fakeServer) RemoveDir(p string) error {
	s.record("rmd " + p)
	if !s.dirs[p] {
		return reject(550, "no such directory")
	}
	for d := range s.dirs {
		if path.Dir(d) == p {
			return reject(550, "directory not empty")
		}
	}
	for f := range s.files {
		if path.Dir(f) == p {
			return reject(550, "directory not empty")
		}
	}
	for l := range s.links {
		if path.Dir(l) == p {
			return reject(550, "directory not empty")
		}
	}
	delete(s.dirs, p)
	return nil
}

func (s *fakeServer) Rename(from, to string) error {
	s.record("rename " + from + " " + to)
	if content, ok := s.files[from]; ok {
		delete(s.files, from)
		s.files[to] = content
		return nil
	}
	if target, ok := s.links[from]; ok {
		delete(s.links, from)
		s.links[to] = target
		return nil
	}
	if s.dirs[from] {
		prefix := from + "/"
		moved := map[string]string{}
		for f, content := range s.files {
			if strings.HasPrefix(f, prefix) {
				moved[to+"/"+strings.TrimPrefix(f, prefix)] = content
				delete(s.files, f)
			}
		}
		for f, content := range moved {
			s.files[f] = content
		}
		var dirs []string
		for d := range s.dirs {
			if strings.HasPrefix(d, prefix) {
				dirs = append(dirs, d)
			}
		}
		for _, d := range dirs {
			delete(s.dirs, d)
			s.dirs[to+"/"+strings.TrimPrefix(d, prefix)] = true
		}
		delete(s.dirs, from)
		s.dirs[to] = true
		return nil
	}
	return reject(550, "no such file")
}

var _ connection.Transport = (*fakeServer)(nil)

var fakeDetails = connection.EndpointDetails{Host: "ftp.example.com", Port: 21, User: "alice", Password: "secret"}

// connFor opens a logged-in connection backed by the fake server.
func connFor(t *testing.T, srv *fakeServer) *connection.Connection {
	t.Helper()
	conn := connection.NewConnection(fakeDetails, connection.WithDialer(
		func(connection.EndpointDetails, time.Duration) (connection.Transport, error) {
			return srv, nil
		}))
	_, err := conn.Connect()
	require.NoError(t, err)
	_, err = conn.Login()
	require.NoError(t, err)
	return conn
}
