package bundler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/libbuilder/internal/entrypoints"
	"git.home.luguber.info/inful/libbuilder/internal/logfields"
	"git.home.luguber.info/inful/libbuilder/internal/metrics"
	"git.home.luguber.info/inful/libbuilder/internal/packagejson"
)

// DefaultBinary is the bundler executable name.
const DefaultBinary = "tsup"

// TsupBundler invokes the tsup CLI.
type TsupBundler struct {
	// Binary is a path or a name looked up in node_modules/.bin under
	// WorkspaceRoot and then on PATH.
	Binary        string
	WorkspaceRoot string
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
	Recorder  metrics.Recorder
	// Project labels metrics.
	Project string
}

// Args returns the command line arguments for opts.
func (b *TsupBundler) Args(opts Options) []string {
	var args []string
	switch opts.Entries.Kind() {
	case entrypoints.KindNamed:
		keys, named := opts.Entries.NamedEntries()
		for _, k := range keys {
			args = append(args, "--entry."+k+"="+named[k])
		}
	default:
		args = append(args, opts.Entries.Paths()...)
	}

	args = append(args, "--out-dir", opts.OutDir)
	formats := make([]string, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		formats = append(formats, string(f))
	}
	if len(formats) == 0 {
		formats = []string{string(packagejson.FormatCJS)}
	}
	args = append(args, "--format", strings.Join(formats, ","))

	if opts.Sourcemap {
		args = append(args, "--sourcemap")
	}
	if opts.DTS {
		args = append(args, "--dts")
	}
	if opts.DTSResolve {
		args = append(args, "--dts-resolve")
	}
	if opts.TSConfig != "" {
		args = append(args, "--tsconfig", opts.TSConfig)
	}
	for _, ext := range opts.External {
		args = append(args, "--external", ext)
	}
	if opts.Metafile {
		args = append(args, "--metafile")
	}
	if opts.Watch {
		args = append(args, "--watch")
	}
	return append(args, b.ExtraArgs...)
}

func (b *TsupBundler) binary() (string, error) {
	name := b.Binary
	if name == "" {
		name = DefaultBinary
	}
	if strings.ContainsRune(name, filepath.Separator) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %w", ErrBundlerNotFound, err)
		}
		return name, nil
	}
	if b.WorkspaceRoot != "" {
		local := filepath.Join(b.WorkspaceRoot, "node_modules", ".bin", name)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBundlerNotFound, err)
	}
	return path, nil
}

// Build runs tsup and calls opts.OnSuccess after each complete pass.
func (b *TsupBundler) Build(ctx context.Context, opts Options) error {
	if opts.Entries.IsZero() {
		return ErrNoEntries
	}
	bin, err := b.binary()
	if err != nil {
		return err
	}
	if stat, err := os.Stat(opts.WorkDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("bundler working directory %s is not a directory", opts.WorkDir)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := b.Args(opts)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = opts.WorkDir
	// tsup forks workers that may outlive it and keep the output pipe open.
	cmd.WaitDelay = waitDelay
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	slog.Debug("Invoking bundler", logfields.Command(bin), logfields.Dir(opts.WorkDir), slog.Any("args", args))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return fmt.Errorf("%w: %w", ErrBundlerFailed, err)
	}

	tracker := newPassTracker(opts.Formats, opts.DTS)
	// Written by the scanning goroutine only; read after it has finished.
	var (
		callbackErr error
		passes      int
		tail        []string
	)
	onPass := func() {
		passes++
		b.recorder().IncBundlerPass(b.Project)
		if opts.OnSuccess == nil || callbackErr != nil {
			return
		}
		if err := opts.OnSuccess(ctx); err != nil {
			callbackErr = err
			cancel()
		}
	}

	scanned := make(chan struct{})
	go func() {
		defer close(scanned)
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			line := stripANSI(scanner.Text())
			if strings.TrimSpace(line) == "" {
				continue
			}
			slog.Info("tsup", slog.String("output", line))
			tail = appendTail(tail, line)
			if tracker.observe(line) {
				onPass()
			}
		}
		_, _ = io.Copy(io.Discard, pr)
	}()

	waitErr := cmd.Wait()
	_ = pw.Close()
	<-scanned
	b.recorder().ObserveSubprocessDuration(DefaultBinary, time.Since(start), waitErr == nil)

	if callbackErr != nil {
		return callbackErr
	}
	if waitErr != nil {
		if opts.Watch && errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		if len(tail) > 0 {
			return fmt.Errorf("%w: %w: %s", ErrBundlerFailed, waitErr, strings.Join(tail, "\n"))
		}
		return fmt.Errorf("%w: %w", ErrBundlerFailed, waitErr)
	}
	if passes == 0 {
		// Exit status 0 without a recognised success line.
		onPass()
		if callbackErr != nil {
			return callbackErr
		}
	}
	return nil
}

func (b *TsupBundler) recorder() metrics.Recorder {
	if b.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return b.Recorder
}

const (
	tailLines = 20
	waitDelay = 5 * time.Second
)

func appendTail(tail []string, line string) []string {
	tail = append(tail, line)
	if len(tail) > tailLines {
		tail = tail[len(tail)-tailLines:]
	}
	return tail
}

var (
	ansi        = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	successLine = regexp.MustCompile(`\b(CJS|ESM|IIFE|DTS)\b.*Build success`)
	failureLine = regexp.MustCompile(`\b(CJS|ESM|IIFE|DTS)\b.*Build failed`)
)

func stripANSI(s string) string { return ansi.ReplaceAllString(s, "") }

// passTracker recognises the end of a compilation pass: a success line for
// every requested format, plus DTS when declarations are emitted.
type passTracker struct {
	want map[string]bool
	seen map[string]bool
}

func newPassTracker(formats []packagejson.Format, dts bool) *passTracker {
	want := make(map[string]bool)
	for _, f := range formats {
		want[strings.ToUpper(string(f))] = true
	}
	if len(want) == 0 {
		want["CJS"] = true
	}
	if dts {
		want["DTS"] = true
	}
	return &passTracker{want: want, seen: make(map[string]bool)}
}

// observe records line and reports whether it completed a pass.
func (p *passTracker) observe(line string) bool {
	if failureLine.MatchString(line) {
		clear(p.seen)
		return false
	}
	m := successLine.FindStringSubmatch(line)
	if m == nil || !p.want[m[1]] {
		return false
	}
	p.seen[m[1]] = true
	if len(p.seen) < len(p.want) {
		return false
	}
	clear(p.seen)
	return true
}
