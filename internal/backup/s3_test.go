package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"lifetimeline/internal/config"
	"lifetimeline/internal/model"
)

// putRecorder is a fake S3 endpoint that accepts PutObject and remembers
// each body by request path.
type putRecorder struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (p *putRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: 501, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	p.mu.Lock()
	p.puts[req.URL.Path] = body
	p.mu.Unlock()
	return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

func newMockUploader(t *testing.T, prefix string) (*S3Uploader, *putRecorder) {
	t.Helper()
	rt := &putRecorder{puts: make(map[string][]byte)}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("cfg: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
	})
	return newS3Uploader(client, "backups", prefix), rt
}

func TestRunUploadsToS3(t *testing.T) {
	up, rt := newMockUploader(t, "timeline")
	job, err := NewJob(t.TempDir(), 3, model.SampleEvents)
	if err != nil {
		t.Fatal(err)
	}
	job.SetUploader(up)

	path, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	name := filepath.Base(path)
	body, ok := rt.puts["/backups/timeline/"+name]
	if !ok {
		t.Fatalf("expected upload of %s, got %v", name, rt.puts)
	}
	if !bytes.Contains(body, []byte("Moved to New York")) {
		t.Fatalf("uploaded body missing events: %q", body)
	}
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, []byte) error {
	return errors.New("bucket unreachable")
}

func TestRunKeepsLocalCopyWhenUploadFails(t *testing.T) {
	job, err := NewJob(t.TempDir(), 3, model.SampleEvents)
	if err != nil {
		t.Fatal(err)
	}
	job.SetUploader(failingUploader{})

	path, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected upload error")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("local backup should remain: %v", statErr)
	}
}

func TestNewS3UploaderRequiresBucket(t *testing.T) {
	if _, err := NewS3Uploader(context.Background(), config.S3Config{}); err == nil {
		t.Fatal("expected missing bucket error")
	}
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	if _, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket: "bkt", Endpoint: "https://mock.s3.local", PathStyle: true,
	}); err != nil {
		t.Fatalf("new uploader: %v", err)
	}
}
