package connection

import (
	"fmt"
	"io"
	"net/textproto"
	"strings"
	"sync"
	"time"
)

// mockTransport is an in-memory Transport for state machine tests. Behavior
// is driven by the maps; every call is recorded for order assertions.
type mockTransport struct {
	mu    sync.Mutex
	calls []string

	loginErr  error
	logoutErr error
	quitErr   error
	noopErr   error

	cwd     string
	dirs    map[string]bool          // paths ChangeDir accepts
	lists   map[string][]RemoteEntry // directory listings
	entries map[string]*RemoteEntry  // MLST results
	mlstOff bool

	storeErr map[string]error
	stored   map[string]string
	retrData map[string]string
	retrErr  map[string]error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		cwd:      "/",
		dirs:     map[string]bool{"/": true},
		lists:    map[string][]RemoteEntry{},
		entries:  map[string]*RemoteEntry{},
		storeErr: map[string]error{},
		stored:   map[string]string{},
		retrData: map[string]string{},
		retrErr:  map[string]error{},
	}
}

func (m *mockTransport) dialer() Dialer {
	return func(EndpointDetails, time.Duration) (Transport, error) { return m, nil }
}

func (m *mockTransport) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockTransport) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func notFound() error {
	return &textproto.Error{Code: 550, Msg: "no such file or directory"}
}

func (m *mockTransport) Login(user, password string) error {
	m.record("login " + user)
	return m.loginErr
}

func (m *mockTransport) Logout() error {
	m.record("logout")
	return m.logoutErr
}

func (m *mockTransport) Quit() error {
	m.record("quit")
	return m.quitErr
}

func (m *mockTransport) Noop() error {
	m.record("noop")
	return m.noopErr
}

func (m *mockTransport) CurrentDir() (string, error) {
	m.record("pwd")
	return m.cwd, nil
}

func (m *mockTransport) ChangeDir(path string) error {
	m.record("cwd " + path)
	if !m.dirs[path] {
		return notFound()
	}
	m.cwd = path
	return nil
}

func (m *mockTransport) List(path string) ([]RemoteEntry, error) {
	m.record("list " + path)
	entries, ok := m.lists[path]
	if !ok {
		return nil, notFound()
	}
	return entries, nil
}

func (m *mockTransport) GetEntry(path string) (*RemoteEntry, error) {
	m.record("mlst " + path)
	if m.mlstOff {
		return nil, ErrFeatureUnsupported
	}
	entry, ok := m.entries[path]
	if !ok {
		return nil, notFound()
	}
	cp := *entry
	return &cp, nil
}

func (m *mockTransport) FileSize(path string) (int64, error) {
	m.record("size " + path)
	if entry, ok := m.entries[path]; ok && entry.Kind == KindFile {
		return entry.Size, nil
	}
	return 0, notFound()
}

func (m *mockTransport) ModTime(path string) (time.Time, error) {
	m.record("mdtm " + path)
	if entry, ok := m.entries[path]; ok {
		return entry.ModTime, nil
	}
	return time.Time{}, notFound()
}

func (m *mockTransport) Retrieve(path string, w io.Writer) error {
	m.record("retr " + path)
	if err := m.retrErr[path]; err != nil {
		return err
	}
	data, ok := m.retrData[path]
	if !ok {
		return notFound()
	}
	_, err := io.Copy(w, strings.NewReader(data))
	return err
}

func (m *mockTransport) Store(path string, r io.Reader) error {
	m.record("stor " + path)
	if err := m.storeErr[path]; err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.stored[path] = string(data)
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) MakeDir(path string) error {
	m.record("mkd " + path)
	m.dirs[path] = true
	return nil
}

func (m *mockTransport) Delete(path string) error {
	m.record("dele " + path)
	if _, ok := m.entries[path]; !ok {
		return notFound()
	}
	delete(m.entries, path)
	return nil
}

func (m *mockTransport) RemoveDir(path string) error {
	m.record("rmd " + path)
	if !m.dirs[path] {
		return notFound()
	}
	delete(m.dirs, path)
	return nil
}

func (m *mockTransport) Rename(from, to string) error {
	m.record(fmt.Sprintf("rename %s %s", from, to))
	entry, ok := m.entries[from]
	if !ok && !m.dirs[from] {
		return notFound()
	}
	if ok {
		delete(m.entries, from)
		m.entries[to] = entry
	}
	if m.dirs[from] {
		delete(m.dirs, from)
		m.dirs[to] = true
	}
	return nil
}

var _ Transport = (*mockTransport)(nil)
