package sbom

import (
	"context"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/deepfence/trustier/output"
	"github.com/deepfence/trustier/sbom/purl"
	"github.com/deepfence/trustier/scanner"
	"github.com/deepfence/trustier/scanner/trusty"
	"github.com/deepfence/trustier/utils"
	log "github.com/sirupsen/logrus"
)

type ScanResult struct {
	ScanID       string                  `json:"scan_id"`
	SerialNumber string                  `json:"serial_number,omitempty"`
	SpecVersion  string                  `json:"spec_version,omitempty"`
	Summary      *output.TrustScanDetail `json:"summary"`
	Results      []scanner.TrustResult   `json:"results"`
	Failures     []trusty.Failure        `json:"failures,omitempty"`
}

// Prepare extracts and filters the purls of bom, logging what was left out.
func Prepare(bom *cdx.BOM) purl.Result {
	filtered := purl.Filter(ExtractPurls(bom))

	if filtered.Removed() > 0 {
		log.Warnf("trustypkg.dev only supports the following ecosystems: %s",
			strings.Join(purl.SupportedEcosystems(), ", "))
		log.Infof("Removed %d out of %d detected Purls in the SBOM", filtered.Removed(), filtered.Original)
	}
	if len(filtered.Purls) != 0 {
		log.Infof("Processing %d Purls...", len(filtered.Purls))
	} else {
		log.Info("Nothing to do...")
	}
	return filtered
}

// Fetch queries the filtered purls. On a fail-fast abort the partial result is
// returned together with the error.
func Fetch(ctx context.Context, bom *cdx.BOM, filtered purl.Result, fetcher *trusty.Fetcher) (*ScanResult, error) {
	result := &ScanResult{
		ScanID:  utils.NewScanID(),
		Results: []scanner.TrustResult{},
	}
	if bom != nil {
		result.SerialNumber = bom.SerialNumber
		result.SpecVersion = bom.SpecVersion.String()
	}

	report, err := fetcher.Run(ctx, filtered.Purls)
	if report != nil {
		result.Results = report.Results
		result.Failures = report.Failures
		log.Debugf("scan %s: %s", result.ScanID, report)
	}
	result.Summary = output.CountByStatus(result.Results, filtered, len(result.Failures))
	return result, err
}

func Scan(ctx context.Context, bom *cdx.BOM, fetcher *trusty.Fetcher) (*ScanResult, error) {
	return Fetch(ctx, bom, Prepare(bom), fetcher)
}
