package handler

import (
	"context"
	"time"

	"paintbot/internal/feed"
	"paintbot/internal/image"
	"paintbot/internal/log"
	"paintbot/internal/page"
	"paintbot/internal/post"
	"paintbot/internal/prompt"
	"paintbot/internal/store"

	"github.com/samber/do"
	"github.com/samber/lo"
)

type Input struct {
	Date   string `json:"date,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Ratio  string `json:"ratio,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
}

type Output struct {
	Date    string `json:"date"`
	Backend string `json:"backend"`
	Prompt  string `json:"prompt"`
	Ratio   string `json:"ratio,omitempty"`
}

// Handler runs one generate-and-publish cycle: fill in missing fields,
// generate the image with the configured backend, upload image and page,
// rebuild the feed, expire the CDN, announce. Nothing is persisted between
// invocations.
type Handler struct {
	randomizer  *prompt.Randomizer
	generator   image.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
	templator   *page.Templator
	feeder      *feed.Generator
	poster      post.Poster
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		randomizer:  do.MustInvoke[*prompt.Randomizer](i),
		generator:   do.MustInvoke[image.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
		templator:   do.MustInvoke[*page.Templator](i),
		feeder:      do.MustInvoke[*feed.Generator](i),
		poster:      do.MustInvoke[post.Poster](i),
	}, nil
}

func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("input", input)
	log.Info("handling invocation")

	if input.Prompt == "" || input.Ratio == "" {
		ratio, prompt, err := h.randomizer.Randomize(ctx)
		if err != nil {
			return Output{}, err
		}
		input.Ratio = lo.Ternary(input.Ratio != "", input.Ratio, ratio)
		input.Prompt = lo.Ternary(input.Prompt != "", input.Prompt, prompt)
	}

	latest := false
	if input.Date == "" {
		input.Date = time.Now().UTC().Format("20060102")
		latest = true
	}

	img, contentType, err := h.generator.Generate(ctx, image.Params{
		Prompt:      input.Prompt,
		AspectRatio: input.Ratio,
		Seed:        input.Seed,
	})
	if err != nil {
		return Output{}, err
	}
	ext := lo.Ternary(contentType == "image/jpeg", ".jpg", ".png")

	html, err := h.templator.Template(ctx, page.Params{
		Image:   input.Date + ext,
		Backend: h.generator.Name(),
		Prompt:  input.Prompt,
		Ratio:   input.Ratio,
	})
	if err != nil {
		return Output{}, err
	}

	metadata := map[string]string{
		"date":    input.Date,
		"backend": h.generator.Name(),
		"prompt":  input.Prompt,
		"ratio":   input.Ratio,
	}
	uploads := []store.UploadParams{
		{
			Name:        input.Date + ext,
			Data:        img,
			ContentType: contentType,
			Metadata:    metadata,
		},
		{
			Name:        input.Date + ".html",
			Data:        html,
			ContentType: "text/html",
			Metadata:    metadata,
		},
	}
	if latest {
		uploads = append(uploads,
			store.UploadParams{
				Name:        "latest" + ext,
				Data:        img,
				ContentType: contentType,
				Metadata:    metadata,
			},
			store.UploadParams{
				Name:        "latest.html",
				Data:        html,
				ContentType: "text/html",
				Metadata:    metadata,
			},
		)
	}
	for _, u := range uploads {
		if err := h.uploader.Upload(ctx, u); err != nil {
			return Output{}, err
		}
	}

	paths := []string{"/" + input.Date + ext, "/" + input.Date + ".html"}
	if h.feeder != nil {
		rss, err := h.feeder.Generate(ctx)
		if err != nil {
			return Output{}, err
		}
		if err := h.uploader.Upload(ctx, store.UploadParams{
			Name:        "feed.xml",
			Data:        rss,
			ContentType: "application/rss+xml",
		}); err != nil {
			return Output{}, err
		}
		paths = append(paths, "/feed.xml")
	}
	if latest {
		paths = append(paths, "/latest"+ext, "/latest.html")
	}
	if err := h.invalidator.Invalidate(ctx, paths); err != nil {
		return Output{}, err
	}

	if latest {
		if err := h.poster.Post(ctx, post.Params{
			Date:    input.Date,
			Backend: h.generator.Name(),
			Prompt:  input.Prompt,
			Ratio:   input.Ratio,
		}); err != nil {
			return Output{}, err
		}
	}

	return Output{
		Date:    input.Date,
		Backend: h.generator.Name(),
		Prompt:  input.Prompt,
		Ratio:   input.Ratio,
	}, nil
}
