package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gorobchenkoann/save-from-inst/internal/downloader"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/gorobchenkoann/save-from-inst/pkg/metadata"
	"github.com/gorobchenkoann/save-from-inst/pkg/scraper"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui/tui"
)

var (
	fetchDownload bool
	fetchJSON     bool
	fetchVerbose  bool
)

// fetchCmd classifies a single post without the interactive shell
var fetchCmd = &cobra.Command{
	Use:   "fetch <post-url>",
	Short: "Classify a post and optionally download its media",
	Long: `Fetch an Instagram post page, classify its media and print the result.

Any failure, whether the page could not be fetched or held no recognizable
media, prints a generic error and exits with status 1. Use --verbose to see
the cause.`,
	Example: `  # Show the media of a post
  save-from-inst fetch https://www.instagram.com/p/BqdB0YHgOri/

  # Download every item into ./downloads/<shortcode>/
  save-from-inst fetch --download https://www.instagram.com/p/BqdB0YHgOri/

  # Machine-readable output
  save-from-inst fetch --json https://www.instagram.com/p/BqdB0YHgOri/`,
	Args: cobra.ExactArgs(1),
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVarP(&fetchDownload, "download", "d", false, "download the media files")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the media record as JSON")
	fetchCmd.Flags().BoolVarP(&fetchVerbose, "verbose", "v", false, "log request details and error causes")
}

func runFetch(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		out.Error("Failed to load configuration", err)
		os.Exit(1)
	}

	if fetchVerbose {
		cfg.Logging.Level = "debug"
	} else if !cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = "warn"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		out.Error("Failed to initialize logging", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	if err := applyCredentials(cfg, log); err != nil {
		out.Error("Failed to load credentials", err)
		os.Exit(1)
	}

	ctx, stop := signalContext()

	s, cleanup, err := newScraper(ctx, cfg, log)
	if err != nil {
		out.Error("Failed to initialize", err)
		exitIfFailed(err, stop)
		return
	}

	exitIfFailed(fetchPost(ctx, out, s, log, args[0]), stop, cleanup)
}

// fetchPost looks up postURL, prints the record and downloads it when asked.
// Failures are reported on out before being returned.
func fetchPost(ctx context.Context, out *ui.Printer, s *scraper.Scraper, log logger.Logger, postURL string) error {
	record, err := s.Lookup(ctx, postURL)
	if err != nil {
		log.WithError(err).WithField("url", postURL).Debug("Lookup failed")
		out.Error(tui.ErrorText, nil)
		return err
	}

	if fetchJSON {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			out.Error("Failed to encode record", err)
			return err
		}
		fmt.Fprintln(out.Writer(), string(data))
	} else {
		printRecord(out, record)
	}

	if !fetchDownload {
		return nil
	}

	items := len(record.Items())
	tracker := ui.NewStatusTracker(items)
	if !fetchJSON {
		fmt.Fprintln(out.Writer())
	}

	report, err := s.Download(ctx, record, func(r downloader.Result) {
		tracker.Record(r.Success, r.Skipped, r.Size)
		if fetchJSON {
			return
		}
		status := out.Green("saved  ")
		switch {
		case r.Skipped:
			status = out.Dim("exists ")
		case !r.Success:
			status = out.Red("failed ")
		}
		fmt.Fprintf(out.Writer(), "%s %s %s\n", tracker.ProgressBar(), status, r.Job.Filename)
	})
	if report != nil && !fetchJSON {
		out.Info("Saved to", report.Dir)
		fmt.Fprintln(out.Writer(), tracker.Summary())
	}
	if err != nil {
		out.Error("Download failed", err)
		return err
	}
	return nil
}

func printRecord(out *ui.Printer, record *media.Record) {
	if record.Shortcode != "" {
		out.Info("Post", record.Shortcode)
	}

	switch record.Kind {
	case media.KindImage:
		out.Info("Image", record.ImageURL)
	case media.KindVideo:
		out.Info("Video", record.VideoURL)
	case media.KindCarousel:
		out.Info("Carousel", fmt.Sprintf("%d slides", len(record.Slides)))
		for i, slide := range record.Slides {
			fmt.Fprintf(out.Writer(), "  %2d. %-5s %s\n", i+1, slide.Kind, slide.URL())
		}
	}

	if record.Caption != "" {
		out.Info("Caption", metadata.FormattedCaption(record.Caption, 100))
	}
}
