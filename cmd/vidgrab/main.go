// Command vidgrab fetches a YouTube video: inspect available qualities, pick
// one, download it, merging split video/audio streams when needed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/vidgrab/vidgrab/client"
	"github.com/vidgrab/vidgrab/internal/transfer"
)

func main() {
	var (
		input   = flag.String("url", "", "YouTube URL or video ID")
		list    = flag.Bool("list", false, "List quality options and exit")
		choice  = flag.String("quality", "", "Quality option key (see -list); default is the best video tier")
		outDir  = flag.String("o", ".", "Output directory")
		relay   = flag.String("relay", "", "Base URL of a vidgrab server used as transfer fallback")
		ffmpeg  = flag.String("ffmpeg", "", "Path to ffmpeg (default: found in PATH)")
		timeout = flag.Duration("timeout", 30*time.Minute, "Overall timeout")
	)
	flag.Parse()

	if *input == "" && flag.NArg() > 0 {
		*input = flag.Arg(0)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: vidgrab [-list] [-quality KEY] [-o DIR] <url-or-id>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	c := client.New(client.Config{
		RelayBaseURL: *relay,
		OutputDir:    *outDir,
		FFmpegPath:   *ffmpeg,
		Logger:       stderrLogger{},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	info, options, err := c.Qualities(ctx, *input)
	if err != nil {
		log.Fatalf("Error fetching info: %v", err)
	}

	fmt.Printf("%s\n  by %s (%s)\n", info.Title, info.Author, info.DurationText)
	if len(options) == 0 {
		log.Fatal("No formats available for this video")
	}

	if *list {
		for _, opt := range options {
			fmt.Printf("  %-12s %s\n", opt.Key, opt.Label)
		}
		return
	}

	selected, err := pickOption(options, *choice)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Downloading: %s\n", selected.Label)

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	res, err := c.Download(ctx, info, selected, func(p transfer.Progress) {
		switch p.Stage {
		case transfer.StageDownloading:
			bar.Describe("downloading")
		case transfer.StageMerging:
			bar.Describe("merging")
		case transfer.StageComplete:
			bar.Describe("done")
		}
		_ = bar.Set(int(p.Percent))
	})
	fmt.Println()
	if err != nil {
		if errors.Is(err, client.ErrCancelled) {
			fmt.Println("Cancelled.")
			os.Exit(130)
		}
		log.Fatalf("Download failed: %v", err)
	}
	fmt.Printf("Saved %s (%d bytes)\n", res.OutputPath, res.Bytes)
}

func pickOption(options []client.QualityOption, key string) (client.QualityOption, error) {
	if key == "" {
		// Best video tier; falls back to the audio option for audio-only
		// catalogs.
		for _, opt := range options {
			if opt.Group == "video" {
				return opt, nil
			}
		}
		return options[0], nil
	}
	for _, opt := range options {
		if opt.Key == key {
			return opt, nil
		}
	}
	return client.QualityOption{}, fmt.Errorf("unknown quality key %q (use -list)", key)
}

type stderrLogger struct{}

func (stderrLogger) Warnf(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}
