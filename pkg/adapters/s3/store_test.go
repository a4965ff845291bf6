package s3_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/refgraph/pkg/adapters/s3"
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket provides a tiny fake S3 subset sufficient to exercise the adapter
// without network access. Path style: /<bucket>/<key>.
type fakeBucket struct {
	mu    sync.Mutex
	state map[string][]byte
}

func respond(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: header}
}

func (f *fakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.state {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.state[k]))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, b.String(), http.Header{"Content-Type": {"application/xml"}}), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeChunked(body)
		}
		f.state[key] = body
		return respond(http.StatusOK, "", http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		body, ok := f.state[key]
		if !ok {
			return respond(http.StatusNotFound,
				`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`,
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), Header: http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Content-Type":   {"application/json"},
		}}, nil
	case http.MethodDelete:
		delete(f.state, key)
		return respond(http.StatusNoContent, "", nil), nil
	}
	return respond(http.StatusNotImplemented, "", nil), nil
}

// decodeChunked strips a single chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeChunked(b []byte) []byte {
	head, rest, ok := bytes.Cut(b, []byte("\r\n"))
	if !ok {
		return b
	}
	size, err := strconv.ParseInt(string(head), 16, 64)
	if err != nil || int64(len(rest)) < size {
		return b
	}
	return rest[:size]
}

func newStore(t *testing.T, prefix string) (*s3.Store, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{state: make(map[string][]byte)}
	client := awss3.New(awss3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
		HTTPClient:   &http.Client{Transport: bucket},
		BaseEndpoint: aws.String("https://mock.s3.local"),
		UsePathStyle: true,
	})
	return s3.NewFromClient(client, "snapshots-bucket", prefix), bucket
}

func TestS3Store_Contract(t *testing.T) {
	store, _ := newStore(t, "")
	ports.RunSnapshotStoreContract(t, store)
}

func TestS3Store_KeyLayout(t *testing.T) {
	store, bucket := newStore(t, "docs/")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc", domain.NewSnapshot("doc")))
	assert.Contains(t, bucket.state, "docs/doc.json")

	bucket.state["docs/nested/other.json"] = []byte("{}")
	bucket.state["docs/readme.txt"] = []byte("x")
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, ids)
}

func TestS3Store_InvalidID(t *testing.T) {
	store, _ := newStore(t, "")
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", domain.NewSnapshot("")))
	assert.Error(t, store.Save(ctx, "a/b", domain.NewSnapshot("a/b")))
}

func TestS3Store_CorruptObject(t *testing.T) {
	store, bucket := newStore(t, "")
	bucket.state["snapshots/bad.json"] = []byte("{")

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestS3Store_New_RequiresBucket(t *testing.T) {
	_, err := s3.New(context.Background(), s3.Config{})
	assert.Error(t, err)
}
