// redirecthandler/redirecthandler_test.go
package redirecthandler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/deploymenttheory/go-share-downloader/logger"
	"github.com/deploymenttheory/go-share-downloader/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newRedirectingClient returns a client whose redirects are governed by a RedirectHandler.
func newRedirectingClient(t *testing.T, maxRedirects int) *http.Client {
	t.Helper()
	client := &http.Client{}
	require.NoError(t, SetupRedirectHandler(client, true, maxRedirects, logger.NewNopLogger()))
	return client
}

// TestRedirectHandler_FollowsRedirects verifies a redirect chain within the limit is followed.
func TestRedirectHandler_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusFound)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusSeeOther)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "done")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := newRedirectingClient(t, 5).Get(server.URL + "/start")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/end", resp.Request.URL.Path)
}

// TestRedirectHandler_LoopDetection ensures a redirect back to an already visited URL stops the chain.
func TestRedirectHandler_LoopDetection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/a", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newRedirectingClient(t, 10).Get(server.URL + "/a")

	var loopErr *RedirectLoopError
	require.True(t, errors.As(err, &loopErr), "expected RedirectLoopError, got %v", err)
	assert.Equal(t, server.URL+"/a", loopErr.URL)
}

// TestRedirectHandler_MaxRedirectsReached checks that the handler stops redirects after reaching the maximum limit.
func TestRedirectHandler_MaxRedirectsReached(t *testing.T) {
	var hops int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", hops), http.StatusTemporaryRedirect)
	}))
	defer server.Close()

	_, err := newRedirectingClient(t, 2).Get(server.URL + "/hop/0")

	var maxErr *MaxRedirectsError
	require.True(t, errors.As(err, &maxErr), "expected MaxRedirectsError, got %v", err)
	assert.Equal(t, 2, maxErr.MaxRedirects)
	assert.Equal(t, 2, hops)
}

// TestRedirectHandler_CrossDomainStripsSensitiveHeaders verifies credentials are not forwarded to another host.
func TestRedirectHandler_CrossDomainStripsSensitiveHeaders(t *testing.T) {
	var receivedAuth, receivedAgent string
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		receivedAgent = r.Header.Get("User-Agent")
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/file", http.StatusFound)
	}))
	defer origin.Close()

	req, err := http.NewRequest(http.MethodGet, origin.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("User-Agent", "agent")

	resp, err := newRedirectingClient(t, 5).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, receivedAuth)
	assert.Equal(t, "agent", receivedAgent)
}

// TestRedirectHandler_NonIdempotentMethod checks POST redirects are not followed.
func TestRedirectHandler_NonIdempotentMethod(t *testing.T) {
	mockLogger := mocklogger.NewMockLogger()
	mockLogger.On("Warn", "Redirect attempted on non-idempotent method, not following", mock.Anything).Once()
	handler := NewRedirectHandler(mockLogger, 5)

	reqURL, _ := url.Parse("http://example.com/upload")
	err := handler.checkRedirect(&http.Request{URL: reqURL, Method: http.MethodPost}, []*http.Request{{}})

	assert.Equal(t, http.ErrUseLastResponse, err)
	mockLogger.AssertExpectations(t)
}

// TestRedirectHandler_SecureRequest tests that sensitive headers are removed and logged.
func TestRedirectHandler_SecureRequest(t *testing.T) {
	mockLogger := mocklogger.NewMockLogger()
	mockLogger.On("Debug", "Removed sensitive header on cross-domain redirect", mock.Anything).Twice()

	handler := NewRedirectHandler(mockLogger, 5)
	req := &http.Request{Header: http.Header{"Authorization": []string{"token"}, "Cookie": []string{"session"}, "Accept": []string{"*/*"}}}

	handler.secureRequest(req)

	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("Cookie"))
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
	mockLogger.AssertExpectations(t)
}

// TestRedirectHandler_AdjustForSeeOther checks 303 responses downgrade the request to a body-less GET.
func TestRedirectHandler_AdjustForSeeOther(t *testing.T) {
	handler := NewRedirectHandler(logger.NewNopLogger(), 5)
	req := &http.Request{Method: http.MethodPut, ContentLength: 10, Header: http.Header{"Content-Type": []string{"text/plain"}}}

	handler.adjustForSeeOther(req)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Zero(t, req.ContentLength)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

// TestSetupRedirectHandler covers the configuration paths.
func TestSetupRedirectHandler(t *testing.T) {
	t.Run("disabled returns redirect responses as is", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
		}))
		defer server.Close()

		client := &http.Client{}
		require.NoError(t, SetupRedirectHandler(client, false, 0, logger.NewNopLogger()))

		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("invalid max redirects", func(t *testing.T) {
		err := SetupRedirectHandler(&http.Client{}, true, 0, logger.NewNopLogger())
		assert.Error(t, err)
	})
}
