package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deepfence/trustier/scanner"
	"github.com/deepfence/trustier/utils"
	tw "github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Write renders results in the requested format. JSON is the default and an
// empty result set renders as [].
func Write(w io.Writer, format string, results []scanner.TrustResult) error {
	if results == nil {
		results = []scanner.TrustResult{}
	}
	switch format {
	case "", utils.JSONOutput:
		return JSONOutput(w, results)
	case utils.YAMLOutput:
		return YAMLOutput(w, results)
	case utils.TableOutput:
		return TableOutput(w, results)
	default:
		return fmt.Errorf("output should be %s, %s or %s", utils.JSONOutput, utils.YAMLOutput, utils.TableOutput)
	}
}

// WriteFile renders results into path, creating missing parent directories.
func WriteFile(path, format string, results []scanner.TrustResult) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, results); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write output file")
	}
	return nil
}

func JSONOutput(w io.Writer, results []scanner.TrustResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error converting results to json")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func YAMLOutput(w io.Writer, results []scanner.TrustResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return errors.Wrap(err, "error converting results to yaml")
	}
	return enc.Close()
}

func TableOutput(w io.Writer, results []scanner.TrustResult) error {
	table := tw.NewWriter(w)
	table.SetHeader([]string{"Purl", "Name", "Version", "Archived", "Deprecated", "Scores"})
	table.SetHeaderLine(true)
	table.SetBorder(true)
	table.SetAutoWrapText(true)
	table.SetAutoFormatHeaders(true)
	table.SetColMinWidth(0, 30)

	for _, r := range results {
		table.Append([]string{
			r.PurlString(),
			deref(r.Name),
			deref(r.Version),
			yesNo(r.IsArchived()),
			yesNo(r.Deprecated()),
			formatScores(r.Scores),
		})
	}
	table.Render()
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatScores(scores map[string]any) string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := scores[k].(type) {
		case float64:
			parts = append(parts, fmt.Sprintf("%s=%.2f", k, v))
		case nil:
			continue
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
