// Package purl narrows SBOM package URLs down to the ecosystems trustypkg.dev
// can score.
package purl

import (
	"strings"

	"github.com/package-url/packageurl-go"
	log "github.com/sirupsen/logrus"
)

const (
	TypeCargo  = "cargo"
	TypeCrates = "crates"
)

// SBOM tooling writes Rust packages as cargo, the trust API calls them crates.
var supportedEcosystems = []string{"pypi", "npm", TypeCrates, TypeCargo, "maven", "go"}

// SupportedEcosystems returns the ecosystem names the trust API accepts.
func SupportedEcosystems() []string {
	return []string{"pypi", "npm", TypeCrates, "maven", "go"}
}

func isSupported(ecosystem string) bool {
	for _, e := range supportedEcosystems {
		if e == ecosystem {
			return true
		}
	}
	return false
}

type Result struct {
	Purls       []string `json:"purls"`
	Original    int      `json:"original"`
	Invalid     int      `json:"invalid,omitempty"`
	Unsupported int      `json:"unsupported,omitempty"`
	Duplicates  int      `json:"duplicates,omitempty"`
}

// Removed is the number of detected purls that will not be queried.
func (r Result) Removed() int {
	return r.Original - len(r.Purls)
}

// Filter keeps the purls of supported ecosystems in input order, drops
// unparsable ones and duplicates, lower-cases the type and rewrites cargo
// purls to crates.
func Filter(purls []string) Result {
	result := Result{
		Purls:    make([]string, 0, len(purls)),
		Original: len(purls),
	}
	seen := make(map[string]struct{}, len(purls))

	for _, raw := range purls {
		p, err := packageurl.FromString(raw)
		if err != nil {
			log.Warnf("dropping invalid purl %q: %v", raw, err)
			result.Invalid++
			continue
		}
		ecosystem := strings.ToLower(p.Type)
		if !isSupported(ecosystem) {
			log.Debugf("dropping purl %q: ecosystem %s is not supported", raw, ecosystem)
			result.Unsupported++
			continue
		}
		if ecosystem == TypeCargo {
			ecosystem = TypeCrates
		}
		normalized := RewriteType(raw, ecosystem)
		if _, ok := seen[normalized]; ok {
			result.Duplicates++
			continue
		}
		seen[normalized] = struct{}{}
		result.Purls = append(result.Purls, normalized)
	}

	return result
}

// RewriteType replaces the type segment of a purl string and leaves everything
// else byte for byte as it was.
func RewriteType(raw, ecosystem string) string {
	scheme := strings.Index(raw, ":")
	if scheme < 0 {
		return raw
	}
	rest := strings.TrimLeft(raw[scheme+1:], "/")
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return raw
	}
	return raw[:scheme+1] + ecosystem + rest[slash:]
}
