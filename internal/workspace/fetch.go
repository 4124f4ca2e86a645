package workspace

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// downloadAttempts bounds the transport-level retries. Nothing past the
// download is ever retried.
const downloadAttempts = 4

// Fetch downloads the tarball at url and extracts it into the workspace.
// Archives produced by forges wrap everything in a single top-level
// directory, which is stripped so the workspace root is the repo root.
func (w *Workspace) Fetch(ctx context.Context, url string) error {
	zap.S().Infow("downloading test sources", "url", url)

	tmp, err := w.download(ctx, url)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	f, err := os.Open(tmp)
	if err != nil {
		return fmt.Errorf("failed to open downloaded tarball: %w", err)
	}
	defer f.Close()

	if err := extractTarGz(f, w.Dir); err != nil {
		return fmt.Errorf("failed to extract %s: %w", url, err)
	}
	return nil
}

// download fetches url into a temporary file inside the workspace (removed
// after extraction), retrying transient transport failures with exponential
// backoff.
func (w *Workspace) download(ctx context.Context, url string) (string, error) {
	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return "", fmt.Errorf("server returned %s", resp.Status)
		default:
			// 4xx will not get better by retrying.
			return "", backoff.Permanent(fmt.Errorf("server returned %s", resp.Status))
		}

		tmp, err := os.CreateTemp(w.Dir, "tests-*.tar.gz")
		if err != nil {
			return "", backoff.Permanent(err)
		}
		defer tmp.Close()

		if _, err := io.Copy(tmp, resp.Body); err != nil {
			os.Remove(tmp.Name())
			return "", fmt.Errorf("failed to read tarball body: %w", err)
		}
		return tmp.Name(), nil
	}

	name, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(downloadAttempts),
		backoff.WithMaxElapsedTime(5*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	return name, nil
}

// extractTarGz unpacks a gzipped tarball into dest, stripping the leading
// path component. Entries escaping dest are rejected.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		name := stripComponent(hdr.Name)
		if name == "" {
			continue
		}
		target, err := securePath(dest, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create parent of %s: %w", target, err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) || strings.Contains(hdr.Linkname, "..") {
				return fmt.Errorf("refusing symlink %s -> %s", name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create parent of %s: %w", target, err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
		default:
			zap.S().Debugw("skipping tar entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}
}

// stripComponent drops the leading path component of a tar entry name, the
// way tar --strip-components=1 does.
func stripComponent(name string) string {
	name = strings.TrimPrefix(name, "./")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// securePath joins name onto dest and verifies the result stays inside it.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("tar entry %q escapes the workspace", name)
	}
	return target, nil
}
