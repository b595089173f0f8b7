package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "paintings"

// fakeS3 serves just enough of the S3 REST API for the paginator and the
// HeadObject fan-out: one unpaginated listing plus per-key heads.
type fakeS3 struct {
	srv  *httptest.Server
	keys []string
	when func(key string) time.Time
}

func newFakeS3(t *testing.T, keys []string) *fakeS3 {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeS3{
		keys: keys,
		when: func(key string) time.Time {
			for i, k := range keys {
				if k == key {
					return base.Add(time.Duration(i) * time.Hour)
				}
			}
			return base
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+testBucket, func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		sb.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		fmt.Fprintf(&sb, "<Name>%s</Name><KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated>", testBucket, len(f.keys))
		for _, key := range f.keys {
			fmt.Fprintf(&sb, "<Contents><Key>%s</Key><LastModified>%s</LastModified><Size>10</Size></Contents>",
				key, f.when(key).Format(time.RFC3339))
		}
		sb.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sb.String()))
	})
	mux.HandleFunc("/"+testBucket+"/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/"+testBucket+"/")
		w.Header().Set("Last-Modified", f.when(key).Format(http.TimeFormat))
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "10")
		w.Header().Set("X-Amz-Meta-Prompt", "painting of "+key)
		w.Header().Set("X-Amz-Meta-Backend", "modelscope")
		w.WriteHeader(http.StatusOK)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeS3) client() *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(f.srv.URL)
		o.UsePathStyle = true
		o.Credentials = aws.AnonymousCredentials{}
	})
}

func TestGenerateIncludesEveryPainting(t *testing.T) {
	keys := make([]string, 0, 42)
	for i := 1; i <= 40; i++ {
		keys = append(keys, fmt.Sprintf("%03d.png", i))
	}
	// Neither the working copies nor the feed itself belong in the feed.
	keys = append(keys, "latest.png", "feed.xml")

	f := newFakeS3(t, keys)
	g := &Generator{client: f.client(), bucket: testBucket, siteURL: "https://paintbot.example"}

	rss, err := g.Generate(context.Background())
	require.NoError(t, err)

	out := string(rss)
	assert.Equal(t, 40, strings.Count(out, "<item>"))
	for i := 1; i <= 40; i++ {
		assert.Contains(t, out, fmt.Sprintf("https://paintbot.example/%03d.png", i))
	}
	assert.NotContains(t, out, "latest.png")
	assert.NotContains(t, out, "feed.xml")
	assert.Contains(t, out, "painting of 001.png (modelscope)")
}

func TestGenerateSortsOldestFirst(t *testing.T) {
	f := newFakeS3(t, []string{"new.png", "old.png", "mid.png"})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := map[string]time.Time{
		"old.png": base,
		"mid.png": base.Add(time.Hour),
		"new.png": base.Add(2 * time.Hour),
	}
	f.when = func(key string) time.Time { return times[key] }
	g := &Generator{client: f.client(), bucket: testBucket, siteURL: "https://paintbot.example"}

	rss, err := g.Generate(context.Background())
	require.NoError(t, err)

	out := string(rss)
	assert.Less(t, strings.Index(out, "old.png"), strings.Index(out, "mid.png"))
	assert.Less(t, strings.Index(out, "mid.png"), strings.Index(out, "new.png"))
}
