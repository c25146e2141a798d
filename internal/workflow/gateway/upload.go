package gateway

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	errx "github.com/experience-engine/server/internal/core/error"
	logx "github.com/experience-engine/server/pkg/logger"
)

// FileStore abstracts the remote multimodal file store for tests.
type FileStore interface {
	UploadFromPath(ctx context.Context, path string) (*genai.File, error)
	Get(ctx context.Context, name string) (*genai.File, error)
}

type genaiFileStore struct {
	client *genai.Client
}

func (s *genaiFileStore) UploadFromPath(ctx context.Context, path string) (*genai.File, error) {
	return s.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{})
}

func (s *genaiFileStore) Get(ctx context.Context, name string) (*genai.File, error) {
	return s.client.Files.Get(ctx, name, &genai.GetFileConfig{})
}

// Uploader uploads a local file to the multimodal store and polls it to the
// ACTIVE state. The resulting handle is cached in workflow state and reused
// by later nodes; the uploader itself never re-uploads.
type Uploader struct {
	store        FileStore
	pollInterval time.Duration
	pollTimeout  time.Duration
	sleep        func(time.Duration)
	now          func() time.Time
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithUploaderClock replaces sleep and now, for tests.
func WithUploaderClock(sleep func(time.Duration), now func() time.Time) UploaderOption {
	return func(u *Uploader) {
		u.sleep = sleep
		u.now = now
	}
}

// NewUploader builds an Uploader over the genai file store.
func NewUploader(client *genai.Client, pollInterval, pollTimeout time.Duration, opts ...UploaderOption) *Uploader {
	return newUploader(&genaiFileStore{client: client}, pollInterval, pollTimeout, opts...)
}

func newUploader(store FileStore, pollInterval, pollTimeout time.Duration, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		store:        store,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		sleep:        time.Sleep,
		now:          time.Now,
	}
	if u.pollInterval <= 0 {
		u.pollInterval = 2 * time.Second
	}
	if u.pollTimeout <= 0 {
		u.pollTimeout = 180 * time.Second
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Upload uploads path and waits for the file to become ACTIVE. A FAILED
// state and a poll-ceiling timeout are distinct errors; both are fatal for
// the calling node.
func (u *Uploader) Upload(ctx context.Context, path, sessionID string) (*genai.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errx.NotFound(err, fmt.Sprintf("file not found: %s", path))
	}

	file, err := u.store.UploadFromPath(ctx, path)
	if err != nil {
		return nil, errx.Upstream(err, "file upload failed")
	}
	logx.Debug().
		Str("session_id", sessionID).
		Str("file", file.Name).
		Str("state", string(file.State)).
		Msg("File uploaded, waiting for ACTIVE")

	deadline := u.now().Add(u.pollTimeout)
	for {
		switch file.State {
		case genai.FileStateActive:
			logx.Info().
				Str("session_id", sessionID).
				Str("file", file.Name).
				Msg("File active")
			return file, nil
		case genai.FileStateFailed:
			return nil, errx.Upstream(fmt.Errorf("%w: %s", errx.ErrUploadFailed, file.Name), "file processing failed")
		}

		if !u.now().Before(deadline) {
			return nil, errx.Upstream(fmt.Errorf("%w: %s not active after %s", errx.ErrUploadTimeout, file.Name, u.pollTimeout), "file upload timed out")
		}
		u.sleep(u.pollInterval)

		file, err = u.store.Get(ctx, file.Name)
		if err != nil {
			return nil, errx.Upstream(err, "file state poll failed")
		}
	}
}
