package experiment

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Report file names under the configured report directory.
const (
	jsonReportName = "final_report.json"
	textReportName = "final_report.txt"
)

// scalarOrder fixes the headline keys' position in the text report and the
// chart. Unlisted keys follow alphabetically.
var scalarOrder = []string{KeyBaseline, KeyZeroShot, KeyFineTuned, KeyAbstract, KeyRealistic}

// Conclusion persists the JSON and text reports and returns the scalar
// results for charting.
func (r *Runner) Conclusion() (map[string]float64, error) {
	r.log.Info().
		Float64("reference2016", r.cfg.ReferenceBaseline).
		Float64("zeroShot", r.results.Scalars[KeyZeroShot]).
		Msg("final report: algorithmic evolution")

	if err := r.fs.MkdirAll(r.cfg.ReportDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create report dir %s", r.cfg.ReportDir)
	}

	if err := r.writeJSONReport(); err != nil {
		return nil, err
	}
	if err := r.writeTextReport(); err != nil {
		return nil, err
	}

	scalars := make(map[string]float64, len(r.results.Scalars))
	for k, v := range r.results.Scalars {
		scalars[k] = v
	}
	return scalars, nil
}

func (r *Runner) writeJSONReport() error {
	doc := make(map[string]interface{}, len(r.results.Scalars)+1)
	for k, v := range r.results.Scalars {
		doc[k] = v
	}
	if len(r.results.Styles) > 0 {
		doc[KeyStyles] = r.results.Styles
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	path := filepath.Join(r.cfg.ReportDir, jsonReportName)
	if err := afero.WriteFile(r.fs, path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	r.log.Info().Str("path", path).Msg("detailed results saved")
	return nil
}

func (r *Runner) writeTextReport() error {
	var sb strings.Builder
	sb.WriteString("=== REPLICATION STUDY RESULTS ===\n")

	for _, key := range orderedScalarKeys(r.results.Scalars) {
		fmt.Fprintf(&sb, "%s: %.4f\n", key, r.results.Scalars[key])
	}

	if len(r.results.Styles) > 0 {
		fmt.Fprintf(&sb, "\n%s:\n", KeyStyles)
		styles := make([]string, 0, len(r.results.Styles))
		for style := range r.results.Styles {
			styles = append(styles, style)
		}
		sort.Strings(styles)
		for _, style := range styles {
			fmt.Fprintf(&sb, "  %s: %.4f\n", style, r.results.Styles[style])
		}
	}

	path := filepath.Join(r.cfg.ReportDir, textReportName)
	if err := afero.WriteFile(r.fs, path, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	r.log.Info().Str("path", path).Msg("text summary saved")
	return nil
}

// orderedScalarKeys returns present headline keys first, then the rest sorted.
func orderedScalarKeys(scalars map[string]float64) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, key := range scalarOrder {
		if _, ok := scalars[key]; ok {
			keys = append(keys, key)
			seen[key] = struct{}{}
		}
	}
	var rest []string
	for key := range scalars {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
