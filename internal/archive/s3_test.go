package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	bucket      string
	key         string
	contentType string
	body        string
}

type fakeUploader struct {
	uploads []upload
	failOn  string
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	key := aws.ToString(input.Key)
	if f.failOn != "" && key == f.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, upload{
		bucket:      aws.ToString(input.Bucket),
		key:         key,
		contentType: aws.ToString(input.ContentType),
		body:        string(body),
	})
	return &manager.UploadOutput{Key: input.Key}, nil
}

func newTestArchiver(up Uploader) *Archiver {
	a := NewWithUploader(up, "reports-bucket", "/advisor/", zerolog.Nop())
	a.now = func() time.Time { return time.Date(2024, 3, 5, 23, 0, 0, 0, time.FixedZone("EST", -5*3600)) }
	return a
}

func TestArchive_UploadsEveryFile(t *testing.T) {
	up := &fakeUploader{}
	a := newTestArchiver(up)

	objects, err := a.Archive(context.Background(), "snap-1",
		File{Format: "md", ContentType: "text/markdown", Body: []byte("# Report")},
		File{Format: "json", ContentType: "application/json", Body: []byte(`{}`)},
	)
	require.NoError(t, err)

	require.Len(t, objects, 2)
	assert.Equal(t, "advisor/2024/03/06/snap-1/report.md", objects[0].Key)
	assert.Equal(t, "s3://reports-bucket/advisor/2024/03/06/snap-1/report.md", objects[0].URI)
	assert.Equal(t, "json", objects[1].Format)

	require.Len(t, up.uploads, 2)
	assert.Equal(t, "reports-bucket", up.uploads[0].bucket)
	assert.Equal(t, "text/markdown", up.uploads[0].contentType)
	assert.Equal(t, "# Report", up.uploads[0].body)
}

func TestArchive_PartialFailure(t *testing.T) {
	up := &fakeUploader{failOn: "advisor/2024/03/06/snap-1/report.json"}
	a := newTestArchiver(up)

	objects, err := a.Archive(context.Background(), "snap-1",
		File{Format: "md", Body: []byte("# Report")},
		File{Format: "json", Body: []byte(`{}`)},
	)
	assert.ErrorContains(t, err, "access denied")
	require.Len(t, objects, 1)
	assert.Equal(t, "md", objects[0].Format)
}

func TestArchive_Disabled(t *testing.T) {
	a, err := New(context.Background(), config.ArchiveConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, a.Enabled())

	objects, err := a.Archive(context.Background(), "snap-1", File{Format: "md"})
	assert.NoError(t, err)
	assert.Nil(t, objects)

	var nilArchiver *Archiver
	assert.False(t, nilArchiver.Enabled())
	objects, err = nilArchiver.Archive(context.Background(), "snap-1")
	assert.NoError(t, err)
	assert.Nil(t, objects)
}

func TestNew_WithStaticCredentials(t *testing.T) {
	a, err := New(context.Background(), config.ArchiveConfig{
		Bucket:          "reports",
		Prefix:          "advisor",
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, a.Enabled())
	assert.Equal(t, "advisor/2024/01/02/id/report.md", a.Key("id", "md", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}
