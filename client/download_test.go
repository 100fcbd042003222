package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vidgrab/vidgrab/internal/catalog"
	"github.com/vidgrab/vidgrab/internal/quality"
	"github.com/vidgrab/vidgrab/internal/transfer"
)

type fakeSource struct {
	video *catalog.SourceVideo
	err   error
}

func (f *fakeSource) Lookup(ctx context.Context, videoID string) (*catalog.SourceVideo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.video, nil
}

func (f *fakeSource) Open(ctx context.Context, videoID string, itag int) (io.ReadCloser, int64, error) {
	return nil, 0, errors.New("not implemented")
}

type fakeEngine struct {
	files   map[string][]byte
	runErr  error
	removes int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{files: make(map[string][]byte)}
}

func (f *fakeEngine) Init(ctx context.Context) error { return nil }

func (f *fakeEngine) WriteFile(name string, data []byte) error {
	f.files[name] = data
	return nil
}

func (f *fakeEngine) ReadFile(name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, errors.New("no such virtual file")
	}
	return data, nil
}

func (f *fakeEngine) RemoveFile(name string) error {
	f.removes++
	delete(f.files, name)
	return nil
}

func (f *fakeEngine) Run(ctx context.Context, args ...string) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.files[args[len(args)-1]] = []byte("merged-output")
	return nil
}

func testInfo(videoURL, audioURL string) *VideoInfo {
	return &VideoInfo{
		ID:    "dQw4w9WgXcQ",
		Title: "My Test: Video!",
		Formats: []StreamDescriptor{
			{Itag: 137, URL: videoURL, Container: "mp4", Ext: "mp4", HasVideo: true, Height: 1080, QualityLabel: "1080p", Bitrate: 2000000},
			{Itag: 140, URL: audioURL, Container: "mp4", Ext: "m4a", HasAudio: true, Bitrate: 128000},
			{Itag: 22, URL: videoURL, Container: "mp4", Ext: "mp4", HasVideo: true, HasAudio: true, Height: 720, QualityLabel: "720p", Bitrate: 1800000},
		},
	}
}

func optionByItag(t *testing.T, info *VideoInfo, itag int) QualityOption {
	t.Helper()
	for _, opt := range quality.BuildOptions(info) {
		if opt.Format.Itag == itag {
			return opt
		}
	}
	t.Fatalf("no option for itag %d", itag)
	return QualityOption{}
}

func payloadServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload_MuxedNoMerge(t *testing.T) {
	srv := payloadServer(t, "muxed-bytes")
	eng := newFakeEngine()
	c := New(Config{Engine: eng, Source: &fakeSource{}, OutputDir: t.TempDir()})

	info := testInfo(srv.URL, srv.URL)
	var stages []transfer.Stage
	res, err := c.Download(context.Background(), info, optionByItag(t, info, 22), func(p transfer.Progress) {
		stages = append(stages, p.Stage)
	})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if res.Merged {
		t.Error("muxed choice reported as merged")
	}
	if got := filepath.Base(res.OutputPath); got != "my_test_video.mp4" {
		t.Errorf("output name = %q, want my_test_video.mp4", got)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil || string(data) != "muxed-bytes" {
		t.Fatalf("output content = %q err=%v", data, err)
	}
	if len(eng.files) != 0 || eng.removes != 0 {
		t.Error("merge pipeline touched for a muxed download")
	}
	if stages[len(stages)-1] != transfer.StageComplete {
		t.Errorf("final stage = %q, want complete", stages[len(stages)-1])
	}
}

func TestDownload_MergeFlow(t *testing.T) {
	videoSrv := payloadServer(t, strings.Repeat("v", 1000))
	audioSrv := payloadServer(t, strings.Repeat("a", 500))
	eng := newFakeEngine()
	c := New(Config{Engine: eng, Source: &fakeSource{}, OutputDir: t.TempDir()})

	info := testInfo(videoSrv.URL, audioSrv.URL)
	var downloading []float64
	var mergingSeen bool
	res, err := c.Download(context.Background(), info, optionByItag(t, info, 137), func(p transfer.Progress) {
		switch p.Stage {
		case transfer.StageDownloading:
			downloading = append(downloading, p.Percent)
		case transfer.StageMerging:
			mergingSeen = true
		}
	})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if !res.Merged {
		t.Error("merge flow did not report Merged")
	}
	if string(mustRead(t, res.OutputPath)) != "merged-output" {
		t.Error("output is not the mux pipeline result")
	}
	if !mergingSeen {
		t.Error("merging stage never reported")
	}
	// Video transfer is scaled to 0-50, audio to 50-100.
	sawFirstHalf, sawSecondHalf := false, false
	for _, pct := range downloading {
		if pct > 100 {
			t.Fatalf("downloading progress %v out of range", pct)
		}
		if pct == 50 {
			sawFirstHalf = true
		}
		if pct == 100 {
			sawSecondHalf = true
		}
	}
	if !sawFirstHalf || !sawSecondHalf {
		t.Errorf("progress scaling marks missing: %v", downloading)
	}
	if eng.removes != 3 {
		t.Errorf("engine removals = %d, want 3", eng.removes)
	}
}

func TestDownload_NoAudioForMerge(t *testing.T) {
	srv := payloadServer(t, "v")
	c := New(Config{Engine: newFakeEngine(), Source: &fakeSource{}, OutputDir: t.TempDir()})

	info := testInfo(srv.URL, srv.URL)
	// Strip the audio-only descriptor from the catalog.
	var formats []StreamDescriptor
	for _, f := range info.Formats {
		if !(f.HasAudio && !f.HasVideo) {
			formats = append(formats, f)
		}
	}
	info.Formats = formats

	_, err := c.Download(context.Background(), info, optionByItag(t, info, 137), nil)
	if !errors.Is(err, ErrNoAudioForMerge) {
		t.Fatalf("Download() error = %v, want ErrNoAudioForMerge", err)
	}
}

func TestDownload_CancelMidVideoFetchSkipsAudio(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var audioCalls atomic.Int32

	videoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		fmt.Fprint(w, strings.Repeat("v", 64*1024))
		fl.Flush()
		cancel()
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, strings.Repeat("v", 64*1024))
	}))
	defer videoSrv.Close()
	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		audioCalls.Add(1)
		fmt.Fprint(w, "a")
	}))
	defer audioSrv.Close()

	c := New(Config{Engine: newFakeEngine(), Source: &fakeSource{}, OutputDir: t.TempDir()})
	info := testInfo(videoSrv.URL, audioSrv.URL)

	var lastStage transfer.Stage = transfer.StageFetchingInfo
	_, err := c.Download(ctx, info, optionByItag(t, info, 137), func(p transfer.Progress) {
		lastStage = p.Stage
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Download() error = %v, want ErrCancelled", err)
	}
	if lastStage != transfer.StageIdle {
		t.Errorf("final stage = %q, want idle", lastStage)
	}
	if audioCalls.Load() != 0 {
		t.Error("audio fetch started after cancellation")
	}
}

func TestDownload_MergeFailureSurfacesEngineError(t *testing.T) {
	srv := payloadServer(t, "bytes")
	eng := newFakeEngine()
	eng.runErr = errors.New("Conversion failed!")
	c := New(Config{Engine: eng, Source: &fakeSource{}, OutputDir: t.TempDir()})

	info := testInfo(srv.URL, srv.URL)
	_, err := c.Download(context.Background(), info, optionByItag(t, info, 137), nil)
	if err == nil || !strings.Contains(err.Error(), "Conversion failed!") {
		t.Fatalf("Download() error = %v, want engine message to surface", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My Test: Video!", "my_test_video"},
		{"ALL CAPS", "all_caps"},
		{"___", "download"},
		{"tabs\tand  spaces", "tabs_and_spaces"},
		{"already_clean123", "already_clean123"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetVideo_InvalidInput(t *testing.T) {
	c := New(Config{Engine: newFakeEngine(), Source: &fakeSource{}})
	if _, err := c.GetVideo(context.Background(), "not a url"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("GetVideo() error = %v, want ErrInvalidURL", err)
	}
	if _, err := c.GetVideo(context.Background(), "short"); !errors.Is(err, ErrInvalidVideoID) {
		t.Fatalf("GetVideo() error = %v, want ErrInvalidVideoID", err)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
