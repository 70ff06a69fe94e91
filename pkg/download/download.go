package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/retry"
)

const (
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 60 * time.Second
	userAgent      = "adminkit"
)

// Options tunes a Fetch.
type Options struct {
	// Timeout bounds each attempt. Zero uses DefaultTimeout.
	Timeout time.Duration
	// MaxAge reuses an existing dest younger than this. Zero always downloads.
	MaxAge time.Duration
	// Refresh ignores any cached copy.
	Refresh bool
	Retry   retry.Config
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// Fresh reports whether path exists and is younger than maxAge.
func Fresh(path string, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

// Fetch downloads url to dest, retrying transient failures. The file is
// written to a temporary sibling and renamed, so dest is never partial.
func Fetch(ctx context.Context, url, dest string, opts Options) error {
	if url == "" {
		return fmt.Errorf("invalid parameters: url cannot be empty")
	}
	if !opts.Refresh && Fresh(dest, opts.MaxAge) {
		logging.Debug("Using cached download", "url", url, "destination", dest)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory structure: %w", err)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	retryCfg := opts.Retry
	if retryCfg.MaxRetries == 0 {
		retryCfg = retry.DefaultConfig()
	}

	return retry.Do(ctx, retryCfg, func() error {
		logging.Info("Starting download", "url", url, "destination", dest)
		if err := fetchOnce(ctx, client, url, dest); err != nil {
			return err
		}
		logging.Info("Download completed successfully", "file", dest)
		return nil
	})
}

func fetchOnce(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to prepare HTTP request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected HTTP status code: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to open destination file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write downloaded data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close downloaded data: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return retry.Permanent(fmt.Errorf("failed to move download into place: %w", err))
	}
	logging.Debug("File saved", "file", dest)
	return nil
}
