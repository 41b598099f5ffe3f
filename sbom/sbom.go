// Package sbom loads CycloneDX documents and runs their package URLs through
// the trust API.
package sbom

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/deepfence/trustier/utils"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ErrTooLarge is returned when a document, after decompression, exceeds
// maxDocumentSize.
var ErrTooLarge = errors.New("SBOM exceeds the maximum document size")

var maxDocumentSize int64 = 64 << 20

//go:embed schema/bom.schema.json
var bomSchemaJSON string

var bomSchema = jsonschema.MustCompileString("bom.schema.json", bomSchemaJSON)

// ReadSource reads an SBOM from a file, or from standard input when path is
// empty or "-".
func ReadSource(path string) ([]byte, error) {
	if path == "" || path == utils.StdinSource {
		data, err := Read(os.Stdin)
		return data, errors.Wrap(err, "error reading SBOM from standard input")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}
	defer f.Close()
	data, err := Read(f)
	return data, errors.Wrapf(err, "error reading file %s", path)
}

// Read returns the document bytes, transparently inflating gzip and zstd input.
// The inflated document may not exceed maxDocumentSize.
func Read(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "invalid gzip stream")
		}
		defer zr.Close()
		return readLimited(zr)
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "invalid zstd stream")
		}
		defer zr.Close()
		return readLimited(zr)
	default:
		return readLimited(br)
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxDocumentSize {
		return nil, errors.Wrapf(ErrTooLarge, "limit is %d bytes", maxDocumentSize)
	}
	return data, nil
}

// Validate checks the fields trustier relies on against the embedded schema.
func Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "failed to parse BOM")
	}
	if err := bomSchema.Validate(doc); err != nil {
		return errors.Wrap(err, "not a valid CycloneDX SBOM")
	}
	return nil
}

func Decode(data []byte) (*cdx.BOM, error) {
	bom := new(cdx.BOM)
	if err := cdx.NewBOMDecoder(bytes.NewReader(data), cdx.BOMFileFormatJSON).Decode(bom); err != nil {
		return nil, errors.Wrap(err, "failed to parse BOM")
	}
	return bom, nil
}

// Parse validates and decodes an in-memory SBOM.
func Parse(data []byte) (*cdx.BOM, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	return Decode(data)
}

// Load reads, validates and decodes an SBOM stream.
func Load(r io.Reader) (*cdx.BOM, error) {
	data, err := Read(r)
	if err != nil {
		return nil, errors.Wrap(err, "error reading SBOM")
	}
	return Parse(data)
}

// ExtractPurls returns the package URLs of all components, nested ones
// included, in document order.
func ExtractPurls(bom *cdx.BOM) []string {
	purls := []string{}
	if bom == nil || bom.Components == nil {
		return purls
	}
	var walk func(components []cdx.Component)
	walk = func(components []cdx.Component) {
		for _, c := range components {
			if c.PackageURL != "" {
				purls = append(purls, c.PackageURL)
			}
			if c.Components != nil {
				walk(*c.Components)
			}
		}
	}
	walk(*bom.Components)
	return purls
}
