package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", "putridev")
	path, err := c.Upload(context.Background(), "proofs/u1/x.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "proofs/u1/x.png", path)
	require.Equal(t, "/storage/v1/object/putridev/proofs/u1/x.png", gotPath)
	require.Equal(t, "Bearer secret-key", gotAuth)
	require.Equal(t, "image/png", gotType)
	require.Equal(t, "png-bytes", string(gotBody))
}

func TestUploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "b")
	_, err := c.Upload(context.Background(), "x", strings.NewReader(""), "")
	require.ErrorContains(t, err, "403")
}

func TestCreateSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/object/sign/putridev/products/a/1.png", r.URL.Path)

		var payload map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.EqualValues(t, 3600, payload["expiresIn"])

		json.NewEncoder(w).Encode(map[string]string{
			"signedURL": "/object/sign/putridev/products/a/1.png?token=abc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "putridev")
	url, err := c.CreateSignedURL(context.Background(), "products/a/1.png", time.Hour)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/storage/v1/object/sign/putridev/products/a/1.png?token=abc", url)
}

func TestRemove(t *testing.T) {
	var gotPrefixes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/storage/v1/object/putridev", r.URL.Path)

		var payload map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotPrefixes = payload["prefixes"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "putridev")
	require.NoError(t, c.Remove(context.Background(), "a.png", "b.png"))
	require.Equal(t, []string{"a.png", "b.png"}, gotPrefixes)

	// Nothing to remove is a no-op, no request is made.
	require.NoError(t, c.Remove(context.Background()))
}
