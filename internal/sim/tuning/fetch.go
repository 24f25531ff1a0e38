package tuning

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// IsRemote reports whether src names something go-getter must fetch rather than a
// local file.
func IsRemote(src string) bool {
	return strings.Contains(src, "://") || strings.Contains(src, "::")
}

// Fetch downloads a single config file into dir and returns its local path. The
// file keeps the source's base name so Load can pick the format from it.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	base := path.Base(strings.SplitN(src, "?", 2)[0])
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("fetch %s: cannot infer file name", src)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, base)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	return dst, nil
}

// LoadSource loads a local path, or fetches a remote source into cacheDir first.
func LoadSource(ctx context.Context, src, cacheDir string) (WorldGen, error) {
	if !IsRemote(src) {
		return Load(src)
	}
	local, err := Fetch(ctx, src, cacheDir)
	if err != nil {
		return Defaults(), err
	}
	return Load(local)
}
