package swift

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeObject is one stored object in the fake transport.
type fakeObject struct {
	data     []byte
	manifest string // X-Object-Manifest value, "" for plain objects
	modTime  time.Time
}

// fakeTransport is an in-memory Transport for unit tests. It emulates the
// store's observable wire behavior: aggregate headers on container-level
// HEADs, plain object headers on everything else (markers included),
// newline-delimited prefix listings, manifest concatenation, and the
// distinguished no-content listing outcome.
//
// Every request is appended to calls so tests can assert on request shape
// (e.g. that a failed rename issued no mutations).
type fakeTransport struct {
	mu      sync.Mutex
	objects map[string]fakeObject // keyed by addr.Object
	calls   []string

	// listErr, when set for a directory-form object name, overrides the
	// listing outcome for that prefix.
	listErr map[string]error

	// headErr, when set for an object name, overrides HEAD for it.
	headErr map[string]error

	// getErr, when set for an object name, overrides Get for it.
	getErr map[string]error

	// failCopy makes every Copy report (false, nil).
	failCopy bool

	// copyErr, when set for a source object name, overrides Copy for it.
	copyErr map[string]error

	// locationsBody is returned verbatim by Locations.
	locationsBody []byte

	// lastPutHeaders records the extra headers of the most recent Put.
	lastPutHeaders http.Header
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		objects: make(map[string]fakeObject),
		listErr: make(map[string]error),
		headErr: make(map[string]error),
		getErr:  make(map[string]error),
		copyErr: make(map[string]error),
	}
}

// fakeModTime is the fixed modification time every fake object reports.
var fakeModTime = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)

// seed stores an object directly, bypassing the request log.
func (f *fakeTransport) seed(object string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[object] = fakeObject{data: data, modTime: fakeModTime}
}

// record appends one call to the request log.
func (f *fakeTransport) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// callsWith returns the logged calls whose method matches.
func (f *fakeTransport) callsWith(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, method+" ") {
			out = append(out, c)
		}
	}
	return out
}

// has reports whether an object is stored under the exact name.
func (f *fakeTransport) has(object string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[object]
	return ok
}

// size returns the effective length of an object, resolving manifests to
// the summed length of their parts.
func (f *fakeTransport) size(obj fakeObject) int64 {
	if obj.manifest == "" {
		return int64(len(obj.data))
	}
	var total int64
	prefix := "/" + strings.TrimPrefix(obj.manifest, obj.manifestContainer()+"/")
	for name, part := range f.objects {
		if strings.HasPrefix(name, prefix) {
			total += int64(len(part.data))
		}
	}
	return total
}

func (o fakeObject) manifestContainer() string {
	container, _, _ := strings.Cut(o.manifest, "/")
	return container
}

// content resolves the byte content of an object, concatenating manifest
// parts in name order.
func (f *fakeTransport) content(obj fakeObject) []byte {
	if obj.manifest == "" {
		return obj.data
	}
	prefix := "/" + strings.TrimPrefix(obj.manifest, obj.manifestContainer()+"/")
	var names []string
	for name := range f.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var buf bytes.Buffer
	for _, name := range names {
		buf.Write(f.objects[name].data)
	}
	return buf.Bytes()
}

func (f *fakeTransport) Head(_ context.Context, addr ObjectAddress) (http.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("HEAD %s", addr.Object)

	if err, ok := f.headErr[addr.Object]; ok {
		return nil, err
	}

	// Container-level HEAD: aggregate metadata, present even when empty.
	if addr.Object == "" {
		var count int
		var bytesUsed int64
		for _, obj := range f.objects {
			count++
			bytesUsed += int64(len(obj.data))
		}
		h := http.Header{}
		h.Set(headerContainerObjectCount, fmt.Sprintf("%d", count))
		h.Set(headerContainerBytesUsed, fmt.Sprintf("%d", bytesUsed))
		h.Set("Last-Modified", fakeModTime.Format(lastModifiedLayout))
		return h, nil
	}

	obj, ok := f.objects[addr.Object]
	if !ok {
		return nil, fs.ErrNotExist
	}

	h := http.Header{}
	h.Set("Content-Length", fmt.Sprintf("%d", f.size(obj)))
	h.Set("Last-Modified", obj.modTime.Format(lastModifiedLayout))
	if obj.manifest != "" {
		h.Set(headerObjectManifest, obj.manifest)
	}
	return h, nil
}

func (f *fakeTransport) Get(_ context.Context, addr ObjectAddress, rng *ByteRange) (io.ReadCloser, http.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET %s", addr.Object)

	if err, ok := f.getErr[addr.Object]; ok {
		return nil, nil, err
	}

	obj, ok := f.objects[addr.Object]
	if !ok {
		return nil, nil, fs.ErrNotExist
	}

	data := f.content(obj)
	if rng != nil {
		if rng.Start > int64(len(data)) {
			data = nil
		} else {
			data = data[rng.Start:]
		}
		if rng.Length > 0 && rng.Length < int64(len(data)) {
			data = data[:rng.Length]
		}
	}

	h := http.Header{}
	h.Set("Content-Length", fmt.Sprintf("%d", len(data)))
	return io.NopCloser(bytes.NewReader(data)), h, nil
}

func (f *fakeTransport) Put(_ context.Context, addr ObjectAddress, body io.Reader, length int64, extra http.Header) error {
	var data []byte
	if body != nil {
		var err error
		data, err = io.ReadAll(body)
		if err != nil {
			return err
		}
	}
	if int64(len(data)) != length {
		return fmt.Errorf("content length mismatch: declared %d, read %d", length, len(data))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PUT %s", addr.Object)
	f.lastPutHeaders = extra
	f.objects[addr.Object] = fakeObject{
		data:     data,
		manifest: extra.Get(headerObjectManifest),
		modTime:  fakeModTime,
	}
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, addr ObjectAddress) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DELETE %s", addr.Object)

	if _, ok := f.objects[addr.Object]; !ok {
		return false, nil
	}
	delete(f.objects, addr.Object)
	return true, nil
}

func (f *fakeTransport) Copy(_ context.Context, src, dst ObjectAddress) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("COPY %s -> %s", src.Object, dst.Object)

	if f.failCopy {
		return false, nil
	}
	if err, ok := f.copyErr[src.Object]; ok {
		return false, err
	}
	obj, ok := f.objects[src.Object]
	if !ok {
		return false, fs.ErrNotExist
	}
	f.objects[dst.Object] = obj
	return true, nil
}

func (f *fakeTransport) ListPrefix(_ context.Context, addr ObjectAddress, marker string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LIST %s", addr.Object)

	if err, ok := f.listErr[addr.Object]; ok {
		return nil, err
	}

	prefix := addr.Object
	if addr.IsRoot() {
		prefix = "/"
	}

	var names []string
	for name := range f.objects {
		if !strings.HasPrefix(name, prefix) || name <= marker {
			continue
		}
		// Listings carry container-relative names without a leading
		// separator, the way the store renders them.
		names = append(names, strings.TrimPrefix(name, "/"))
	}
	if len(names) == 0 {
		return nil, ErrNoContent
	}
	sort.Strings(names)
	return []byte(strings.Join(names, "\n") + "\n"), nil
}

func (f *fakeTransport) Locations(_ context.Context, addr ObjectAddress) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LOCATIONS %s", addr.Object)
	return f.locationsBody, nil
}

var _ Transport = (*fakeTransport)(nil)

// newTestStore builds a Store over a fresh fake transport.
func newTestStore(t *testing.T) (*Store, *fakeTransport) {
	t.Helper()

	ft := newFakeTransport()
	store, err := NewStore(Config{
		RootURI:   "swift://container.rack/",
		Transport: ft,
		Logger:    slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err, "failed to create test store")
	return store, ft
}

// newTestFS builds a SwiftFS over a fresh fake transport.
func newTestFS(t *testing.T) (*SwiftFS, *fakeTransport) {
	t.Helper()

	store, ft := newTestStore(t)
	return NewWithStore(store), ft
}
