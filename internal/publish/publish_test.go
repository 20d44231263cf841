package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

type putCall struct {
	bucket, key, contentType, body string
}

type fakeS3 struct {
	calls []putCall
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, putCall{
		bucket:      aws.ToString(in.Bucket),
		key:         aws.ToString(in.Key),
		contentType: aws.ToString(in.ContentType),
		body:        string(body),
	})
	return &s3.PutObjectOutput{}, nil
}

func writeFiles(t *testing.T) types.ProposalFiles {
	t.Helper()
	dir := t.TempDir()
	files := types.ProposalFiles{
		Markdown: filepath.Join(dir, "acme_20260101_120000_proposal.md"),
		HTML:     filepath.Join(dir, "acme_20260101_120000_proposal.html"),
	}
	require.NoError(t, os.WriteFile(files.Markdown, []byte("# Proposal"), 0o644))
	require.NoError(t, os.WriteFile(files.HTML, []byte("<h1>Proposal</h1>"), 0o644))
	return files
}

func TestPublish(t *testing.T) {
	fake := &fakeS3{}
	p := &S3Publisher{Bucket: "proposals", Prefix: "/team/", client: fake}

	urls, err := p.Publish(context.Background(), "run-9", writeFiles(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"s3://proposals/team/run-9/acme_20260101_120000_proposal.md",
		"s3://proposals/team/run-9/acme_20260101_120000_proposal.html",
	}, urls)
	require.Len(t, fake.calls, 2)
	assert.Equal(t, putCall{"proposals", "team/run-9/acme_20260101_120000_proposal.md", "text/markdown; charset=utf-8", "# Proposal"}, fake.calls[0])
	assert.Equal(t, "text/html; charset=utf-8", fake.calls[1].contentType)
	assert.Equal(t, "<h1>Proposal</h1>", fake.calls[1].body)
}

func TestPublish_UploadError(t *testing.T) {
	p := &S3Publisher{Bucket: "proposals", client: &fakeS3{err: errors.New("AccessDenied")}}

	urls, err := p.Publish(context.Background(), "run-9", writeFiles(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.Empty(t, urls)
}

func TestPublish_MissingFile(t *testing.T) {
	p := &S3Publisher{Bucket: "proposals", client: &fakeS3{}}
	_, err := p.Publish(context.Background(), "run-9", types.ProposalFiles{Markdown: filepath.Join(t.TempDir(), "gone.md")})
	require.Error(t, err)
}

func TestKey(t *testing.T) {
	tests := []struct{ prefix, want string }{
		{"", "r/f.md"},
		{"proposals", "proposals/r/f.md"},
		{"/a/b/", "a/b/r/f.md"},
	}
	for _, tt := range tests {
		p := &S3Publisher{Prefix: tt.prefix}
		assert.Equal(t, tt.want, p.Key("r", "f.md"))
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("x.md"))
	assert.Equal(t, "text/html; charset=utf-8", contentType("x.HTML"))
	assert.Equal(t, "application/octet-stream", contentType("x.bin"))
}

func TestNewS3Publisher_Disabled(t *testing.T) {
	p, err := NewS3Publisher(context.Background(), types.PublishConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)
}
