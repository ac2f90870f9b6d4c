// downloader/helpers_test.go
package downloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/sink"
	"github.com/stretchr/testify/require"
)

// fakeFile is what the test server returns for one resource id.
type fakeFile struct {
	status      int
	disposition string
	contentType string
	body        string
	setCookies  []string
}

type fakeShareServer struct {
	*httptest.Server
	files    map[string]fakeFile
	requests atomic.Int32

	mu         sync.Mutex
	userAgents []string
	cookies    []string
}

func newFakeShareServer(t *testing.T, files map[string]fakeFile) *fakeShareServer {
	t.Helper()
	s := &fakeShareServer{files: files}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		s.userAgents = append(s.userAgents, r.UserAgent())
		s.cookies = append(s.cookies, r.Header.Get("Cookie"))
		s.mu.Unlock()

		file, ok := s.files[r.URL.Query().Get("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if file.disposition != "" {
			w.Header().Set("Content-Disposition", file.disposition)
		}
		for _, cookie := range file.setCookies {
			w.Header().Add("Set-Cookie", cookie)
		}
		if file.contentType != "" {
			w.Header().Set("Content-Type", file.contentType)
		}
		status := file.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(file.body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeShareServer) seenUserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

func (s *fakeShareServer) seenCookies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...)
}

func testConfig(serverURL string, ids ...string) ClientConfig {
	config := DefaultClientConfig()
	config.LogLevel = "LogLevelNone"
	config.URLTemplate = serverURL + "/uc?id={id}&export=download"
	config.ResourceIDs = ids
	return config
}

func newTestClient(t *testing.T, config ClientConfig) (*Client, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := sink.NewLocalSink(dir, logger.NewNopLogger())
	require.NoError(t, err)

	client, err := NewClient(config, s, logger.NewNopLogger())
	require.NoError(t, err)
	return client, dir
}

// recordingSink keeps written bytes in memory and can be told to fail writes.
type recordingSink struct {
	mu       sync.Mutex
	objects  []*recordingObject
	writeErr error
}

func (s *recordingSink) Create(ctx context.Context, name string) (sink.Object, error) {
	if err := sink.ValidateName(name); err != nil {
		return nil, err
	}
	obj := &recordingObject{name: name, writeErr: s.writeErr}
	s.mu.Lock()
	s.objects = append(s.objects, obj)
	s.mu.Unlock()
	return obj, nil
}

type recordingObject struct {
	name       string
	data       []byte
	writeSizes []int
	writeErr   error
	committed  bool
	aborted    bool
}

func (o *recordingObject) Write(p []byte) (int, error) {
	if o.writeErr != nil {
		return 0, &sink.FilesystemError{Op: "write", Path: o.name, Err: o.writeErr}
	}
	o.writeSizes = append(o.writeSizes, len(p))
	o.data = append(o.data, p...)
	return len(p), nil
}

func (o *recordingObject) Commit() error {
	o.committed = true
	return nil
}

func (o *recordingObject) Abort() error {
	o.aborted = true
	return nil
}

func (o *recordingObject) Location() string {
	return "memory://" + o.name
}

var errDiskFull = errors.New("no space left on device")
