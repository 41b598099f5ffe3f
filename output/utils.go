package output

import (
	"time"

	"github.com/deepfence/trustier/sbom/purl"
	"github.com/deepfence/trustier/scanner"
)

type TrustScanDetail struct {
	Detected   int       `json:"detected"`
	Supported  int       `json:"supported"`
	Removed    int       `json:"removed"`
	Fetched    int       `json:"fetched"`
	Failed     int       `json:"failed"`
	Archived   int       `json:"archived,omitempty"`
	Deprecated int       `json:"deprecated,omitempty"`
	Malicious  int       `json:"malicious,omitempty"`
	TimeStamp  time.Time `json:"time_stamp"`
}

func CountByStatus(results []scanner.TrustResult, filtered purl.Result, failed int) *TrustScanDetail {
	detail := TrustScanDetail{
		Detected:  filtered.Original,
		Supported: len(filtered.Purls),
		Removed:   filtered.Removed(),
		Fetched:   len(results),
		Failed:    failed,
	}

	for _, r := range results {
		if r.IsArchived() {
			detail.Archived += 1
		}
		if r.Deprecated() {
			detail.Deprecated += 1
		}
		if r.IsMalicious() {
			detail.Malicious += 1
		}
	}

	detail.TimeStamp = time.Now()

	return &detail
}
