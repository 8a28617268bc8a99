package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appcfg "github.com/presenton/core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Open(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/decks/notes/q3.md" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = io.WriteString(w, "# Q3 notes")
	}))
	t.Cleanup(srv.Close)

	store, err := New(appcfg.S3Options{
		Bucket:          "decks",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	body, err := store.Open(context.Background(), "", "/notes//q3.md")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)

	assert.Equal(t, "# Q3 notes", string(data))
	assert.Equal(t, "/decks/notes/q3.md", gotPath)
	assert.True(t, strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AKID/"), gotAuth)

	_, err = store.Open(context.Background(), "decks", "missing.md")
	assert.ErrorContains(t, err, "s3 get decks/missing.md")
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(appcfg.S3Options{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrIncompleteConfig)
}

func TestParseRef(t *testing.T) {
	bucket, key, err := ParseRef("s3://decks/team/brief.txt")
	require.NoError(t, err)
	assert.Equal(t, "decks", bucket)
	assert.Equal(t, "team/brief.txt", key)

	_, _, err = ParseRef("s3://decks/")
	assert.Error(t, err)
	_, _, err = ParseRef("https://decks/brief.txt")
	assert.Error(t, err)
}
