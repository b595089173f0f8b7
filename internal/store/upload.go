package store

import (
	"context"
	"os"

	"paintbot/internal/log"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes artifacts to the working directory; used by local
// one-shot runs instead of S3.
type FileUploader struct{}

func (*FileUploader) Upload(ctx context.Context, params UploadParams) error {
	log.FromContextOrDiscard(ctx).WithGroup("file").Info("writing", "file", params.Name)
	return os.WriteFile(params.Name, params.Data, 0600)
}
