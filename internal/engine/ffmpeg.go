package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotInitialized is returned for filesystem or run operations before a
// successful Init.
var ErrNotInitialized = errors.New("engine not initialized")

// FFmpeg implements Engine using the ffmpeg command line tool. A workspace
// directory created at Init backs the virtual filesystem; invocations run
// with the workspace as working directory so virtual names stay relative.
type FFmpeg struct {
	Path string

	initOnce sync.Once
	initErr  error
	dir      string
}

// NewFFmpeg returns an FFmpeg engine. If path is empty, "ffmpeg" is looked
// up in PATH.
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// Available checks if ffmpeg is executable.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

func (f *FFmpeg) Init(ctx context.Context) error {
	f.initOnce.Do(func() {
		if _, err := exec.LookPath(f.Path); err != nil {
			f.initErr = fmt.Errorf("ffmpeg not found: %w", err)
			return
		}
		dir, err := os.MkdirTemp("", "vidgrab-engine-")
		if err != nil {
			f.initErr = fmt.Errorf("engine workspace: %w", err)
			return
		}
		f.dir = dir
	})
	return f.initErr
}

func (f *FFmpeg) WriteFile(name string, data []byte) error {
	path, err := f.resolve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (f *FFmpeg) ReadFile(name string) ([]byte, error) {
	path, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (f *FFmpeg) RemoveFile(name string) error {
	path, err := f.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FFmpeg) Run(ctx context.Context, args ...string) error {
	if f.dir == "" {
		return ErrNotInitialized
	}
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Dir = f.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(out))
	}
	return nil
}

func (f *FFmpeg) resolve(name string) (string, error) {
	if f.dir == "" {
		return "", ErrNotInitialized
	}
	// Virtual names are flat; path components are stripped.
	return filepath.Join(f.dir, filepath.Base(name)), nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
