package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paintbot/internal/log"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Generator builds the RSS feed of every painting published to the site
// bucket, newest last.
type Generator struct {
	client  *s3.Client
	bucket  string
	siteURL string
}

func NewS3Generator(i *do.Injector) (*Generator, error) {
	client := do.MustInvoke[*s3.Client](i)
	bucket := do.MustInvokeNamed[string](i, "bucket")
	siteURL := do.MustInvokeNamed[string](i, "site_url")
	return &Generator{client, bucket, siteURL}, nil
}

func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed")
	log.Info("generating rss feed")

	feed := feeds.Feed{
		Title:       "PaintBot",
		Description: "Daily AI generated paintings",
		Link:        &feeds.Link{Href: g.siteURL},
		Updated:     time.Now(),
	}

	items := make(chan *feeds.Item)
	done := make(chan struct{})
	go func() {
		for i := range items {
			feed.Add(i)
		}
		close(done)
	}()

	err := g.collect(ctx, items)
	// Every sender is finished; closing the channel and waiting for the
	// consumer guarantees all Adds land before Sort touches the items.
	close(items)
	<-done
	if err != nil {
		return nil, err
	}

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.Before(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}

func (g *Generator) collect(ctx context.Context, items chan<- *feeds.Item) error {
	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: &g.bucket,
	})

	group, ctx := errgroup.WithContext(ctx)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			_ = group.Wait()
			return err
		}

		objs := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			key := *o.Key
			return (strings.HasSuffix(key, ".png") || strings.HasSuffix(key, ".jpg")) &&
				!strings.HasPrefix(key, "latest")
		})

		for _, obj := range objs {
			obj := obj
			group.Go(func() error {
				out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
					Bucket: &g.bucket,
					Key:    obj.Key,
				})
				if err != nil {
					return err
				}

				meta := out.Metadata
				items <- &feeds.Item{
					Title:   fmt.Sprintf("%s (%s)", meta["prompt"], meta["backend"]),
					Link:    &feeds.Link{Href: fmt.Sprintf("%s/%s", g.siteURL, *obj.Key)},
					Updated: *out.LastModified,
				}
				return nil
			})
		}
	}

	return group.Wait()
}
