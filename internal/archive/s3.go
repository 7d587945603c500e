// Package archive uploads rendered reports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader is the subset of the S3 upload manager used by the archiver
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// File is one rendered report to archive
type File struct {
	Format      string // "md" or "json"
	ContentType string
	Body        []byte
}

// Object is an archived file
type Object struct {
	Format string `json:"format"`
	Key    string `json:"key"`
	URI    string `json:"uri"`
}

// Archiver uploads reports under <prefix>/<yyyy>/<mm>/<dd>/<snapshot id>/.
// A nil or disabled Archiver uploads nothing.
type Archiver struct {
	uploader Uploader
	bucket   string
	prefix   string
	now      func() time.Time
	log      zerolog.Logger
}

// New creates an archiver from config. Returns a disabled archiver when no
// bucket is configured.
func New(ctx context.Context, cfg config.ArchiveConfig, log zerolog.Logger) (*Archiver, error) {
	log = log.With().Str("component", "archive").Logger()
	if !cfg.Enabled() {
		log.Info().Msg("Report archiving disabled (no bucket configured)")
		return &Archiver{log: log}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info().
		Str("bucket", cfg.Bucket).
		Str("prefix", cfg.Prefix).
		Msg("Report archiving enabled")

	return NewWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithUploader creates an archiver around an existing uploader
func NewWithUploader(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Archiver {
	return &Archiver{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		now:      time.Now,
		log:      log,
	}
}

// Enabled reports whether uploads are configured
func (a *Archiver) Enabled() bool {
	return a != nil && a.uploader != nil && a.bucket != ""
}

// Key returns the object key of a report file
func (a *Archiver) Key(snapshotID, format string, at time.Time) string {
	return path.Join(a.prefix, at.UTC().Format("2006/01/02"), snapshotID, "report."+format)
}

// Archive uploads every file of a snapshot. Files uploaded before a failure
// are returned together with the error.
func (a *Archiver) Archive(ctx context.Context, snapshotID string, files ...File) ([]Object, error) {
	if !a.Enabled() {
		return nil, nil
	}

	at := a.now()
	objects := make([]Object, 0, len(files))
	for _, f := range files {
		key := a.Key(snapshotID, f.Format, at)
		_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(f.Body),
			ContentType: aws.String(f.ContentType),
			Metadata:    map[string]string{"snapshot-id": snapshotID},
		})
		if err != nil {
			return objects, fmt.Errorf("failed to upload %s: %w", key, err)
		}

		obj := Object{Format: f.Format, Key: key, URI: fmt.Sprintf("s3://%s/%s", a.bucket, key)}
		objects = append(objects, obj)

		a.log.Debug().
			Str("snapshot_id", snapshotID).
			Str("uri", obj.URI).
			Int("bytes", len(f.Body)).
			Msg("Report archived")
	}
	return objects, nil
}
