package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deepfence/trustier/output"
	"github.com/deepfence/trustier/sbom"
	"github.com/deepfence/trustier/scanner/trusty"
	"github.com/deepfence/trustier/utils"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// RunOnce loads the SBOM named by config.Source, fetches trust information for
// its supported purls and writes the results to stdout or config.OutputFile.
func RunOnce(ctx context.Context, config utils.Config, stdout, stderr io.Writer) error {
	if !config.Quiet {
		output.PrintBanner(stderr)
	}

	name := config.Source
	if name == "" || name == utils.StdinSource {
		name = "standard input"
	}

	data, err := sbom.ReadSource(config.Source)
	if err != nil {
		return err
	}
	log.Infof("Loaded SBOM from %s", name)

	bom, err := sbom.Parse(data)
	if err != nil {
		return errors.Wrapf(err, "provided input %s is not a valid SBOM", name)
	}
	log.Info("SBOM is valid")
	if bom.SerialNumber != "" {
		log.Infof("SBOM Serial Number: %s", bom.SerialNumber)
	}

	filtered := sbom.Prepare(bom)
	fetcher := trusty.NewFetcher(trusty.NewClient(config), config)

	var bar *progressbar.ProgressBar
	if config.Progress && len(filtered.Purls) > 0 {
		bar = newProgressBar(stderr, len(filtered.Purls))
		fetcher.OnFetch(func(purl string) {
			bar.Describe(purl)
			_ = bar.Add(1)
		})
	} else {
		done := 0
		total := len(filtered.Purls)
		fetcher.OnFetch(func(purl string) {
			done++
			log.Infof("Processed %s (%d/%d)", purl, done, total)
		})
	}

	result, err := sbom.Fetch(ctx, bom, filtered, fetcher)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(stderr)
	}
	if err != nil {
		return errors.Wrap(err, "error fetching trust information")
	}

	if config.OutputFile != "" {
		if err := output.WriteFile(config.OutputFile, config.Output, result.Results); err != nil {
			return err
		}
		log.Infof("%s written to file: %s", strings.ToUpper(outputName(config.Output)), config.OutputFile)
	} else if err := output.Write(stdout, config.Output, result.Results); err != nil {
		return err
	}

	s := result.Summary
	log.Infof("Fetched %d of %d supported Purls (%d failed, %d archived, %d deprecated, %d malicious)",
		s.Fetched, s.Supported, s.Failed, s.Archived, s.Deprecated, s.Malicious)

	if !config.Quiet {
		output.PrintDone(stderr)
	}
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Fetching trust information"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func outputName(format string) string {
	if format == "" {
		return utils.JSONOutput
	}
	return format
}
