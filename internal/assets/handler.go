package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/libbuilder/internal/logfields"
)

// Handler copies a project's assets into its output directory.
type Handler struct {
	// RootDir is the workspace root; asset inputs are relative to it.
	RootDir string
	// ProjectDir is the project root, used for logging.
	ProjectDir string
	OutputDir  string
	Assets     []Asset
}

// Unregister stops a watch subscription.
type Unregister func()

func (h *Handler) inputDir(a Asset) string {
	if filepath.IsAbs(a.Input) {
		return filepath.Clean(a.Input)
	}
	return filepath.Join(h.RootDir, filepath.FromSlash(a.Input))
}

func (h *Handler) destination(a Asset, rel string) string {
	return filepath.Join(h.OutputDir, filepath.FromSlash(a.Output), filepath.FromSlash(rel))
}

// Validate checks every asset.
func (h *Handler) Validate() error {
	for _, a := range h.Assets {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// prepare validates the assets and expands a plain directory pattern into a
// recursive copy of that directory.
func (h *Handler) prepare() error {
	if err := h.Validate(); err != nil {
		return err
	}
	for i, a := range h.Assets {
		if strings.ContainsAny(a.Glob, "*?[{\\") {
			continue
		}
		dir := filepath.Join(h.inputDir(a), filepath.FromSlash(a.Glob))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			h.Assets[i] = Asset{
				Input:  filepath.ToSlash(filepath.Join(a.Input, a.Glob)),
				Glob:   "**/*",
				Output: filepath.ToSlash(filepath.Join(a.Output, a.Glob)),
				Ignore: a.Ignore,
			}
		}
	}
	return nil
}

// ProcessAllAssetsOnce copies every matching file and returns the number copied.
// A missing input directory is skipped with a warning.
func (h *Handler) ProcessAllAssetsOnce(ctx context.Context) (int, error) {
	if err := h.prepare(); err != nil {
		return 0, err
	}
	copied := 0
	for _, a := range h.Assets {
		input := h.inputDir(a)
		if _, err := os.Stat(input); errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Asset input does not exist", logfields.Asset(a.Input), logfields.Path(input))
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(input), a.Glob, doublestar.WithFilesOnly())
		if err != nil {
			return copied, fmt.Errorf("glob %s in %s: %w", a.Glob, input, err)
		}
		for _, rel := range matches {
			if err := ctx.Err(); err != nil {
				return copied, err
			}
			if !a.matches(rel) {
				continue
			}
			if err := copyFile(filepath.Join(input, filepath.FromSlash(rel)), h.destination(a, rel)); err != nil {
				return copied, err
			}
			copied++
		}
	}
	slog.Debug("Copied assets", logfields.Dir(h.ProjectDir), logfields.OutputPath(h.OutputDir), slog.Int("files", copied))
	return copied, nil
}

// sync copies or removes the output of one changed source file.
func (h *Handler) sync(abs string) error {
	for _, a := range h.Assets {
		rel, err := filepath.Rel(h.inputDir(a), abs)
		if err != nil || rel == "." || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if !a.matches(rel) {
			continue
		}
		dest := h.destination(a, rel)
		info, err := os.Stat(abs)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			slog.Debug("Removed asset", logfields.Asset(rel), logfields.Path(dest))
		case err != nil:
			return err
		case info.IsDir():
		default:
			if err := copyFile(abs, dest); err != nil {
				return err
			}
			slog.Debug("Updated asset", logfields.Asset(rel), logfields.Path(dest))
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
