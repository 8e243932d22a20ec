package target

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

type downloadedFile struct {
	name     string
	size     int64
	checksum string
}

// download fetches the binary of asset into workDir.
func (t *GormTarget) download(ctx context.Context, workDir string, asset *core.TargetAsset) (*downloadedFile, error) {
	if workDir == "" {
		return nil, fmt.Errorf("download %s: no working directory", asset.BinaryID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.BinaryID, err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.BinaryID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: HTTP %d", asset.BinaryID, resp.StatusCode)
	}

	name := fileName(asset)
	f, err := os.Create(filepath.Join(workDir, name))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.BinaryID, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.BinaryID, err)
	}

	t.logger().Debug("downloaded binary", "binary", asset.WorldwideUniqueBinaryID(), "bytes", n)
	return &downloadedFile{
		name:     name,
		size:     n,
		checksum: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// fileName prefixes the recommended file name with the unique binary ID so
// that binaries of one run never collide.
func fileName(asset *core.TargetAsset) string {
	base := filepath.Base(strings.ReplaceAll(asset.RecommendedFileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "binary"
	}
	return asset.WorldwideUniqueBinaryID() + "_" + base
}
