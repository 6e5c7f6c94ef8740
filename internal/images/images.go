// Package images stages locally stored listing images for a CMS upload
package images

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// Stager copies the local image files referenced by a collection into a
// staging directory, preserving their relative paths so the uploader can
// resolve them the same way the listings do.
type Stager struct {
	logger ectologger.Logger
}

// NewStager creates a new Stager
func NewStager(logger ectologger.Logger) *Stager {
	return &Stager{logger: logger}
}

// Report counts the outcome of a staging pass
type Report struct {
	Staged  int `json:"staged"`
	Remote  int `json:"remote"`
	Missing int `json:"missing"`
}

// CollectPaths returns the deduplicated, sorted image references of a
// collection: the primary image plus every gallery entry.
func CollectPaths(listings []models.Listing) []string {
	seen := make(map[string]bool)
	for _, listing := range listings {
		if p := listing.GetString("primary_image_url"); p != "" {
			seen[p] = true
		}
		for _, p := range listing.StringList("gallery_image_urls") {
			seen[p] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Stage copies every locally resolvable image under sourceRoot into
// stagingDir. Remote URLs are counted but left alone; the CMS can fetch
// those directly. Missing local files are counted, never fatal.
func (s *Stager) Stage(ctx context.Context, listings []models.Listing, sourceRoot, stagingDir string) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "images.Stager.Stage")
	defer span.End()

	report := &Report{}
	for _, ref := range CollectPaths(listings) {
		if isRemote(ref) {
			report.Remote++
			continue
		}

		rel := strings.TrimPrefix(ref, "/")
		src := filepath.Join(sourceRoot, filepath.FromSlash(rel))
		if _, err := os.Stat(src); err != nil {
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"path": src,
			}).Warn("Referenced image not found locally")
			report.Missing++
			continue
		}

		dst := filepath.Join(stagingDir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warnf("Failed to stage image '%s'", src)
			report.Missing++
			continue
		}
		report.Staged++
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"staged":  report.Staged,
		"remote":  report.Remote,
		"missing": report.Missing,
		"dir":     stagingDir,
	}).Info("Image staging complete")
	return report, nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
