// Package dtm synthesizes multi-resource Design Taste Models from per-resource
// DTRs: fingerprinting, per-axis consensus, conflict resolution, and an LLM
// synthesis pass, behind a cache-first builder.
package dtm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/adalundhe/patina/core/taste"
)

// Fingerprint computes a stable hash over a DTR's consensus-relevant values:
// resource identity, prompt version, and every axis tuple in sorted order.
// Two extractions that agree on all axes share a fingerprint even if their
// narratives differ.
func Fingerprint(d *taste.DTR) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s\n", d.SchemaVersion, d.Resource.Hash, d.Provenance.PromptVersion)

	lines := make([]string, 0, 32)
	for _, key := range taste.RequiredSections {
		section := d.Section(key)
		if section == nil {
			continue
		}
		for _, axis := range section.Axes {
			lines = append(lines, fmt.Sprintf("%s|%s|%.4f|%s|%.2f",
				axis.Name, axis.Kind, axis.Number, axis.Value, axis.Confidence))
		}
	}
	sort.Strings(lines)
	fmt.Fprint(h, strings.Join(lines, "\n"))

	if d.Metrics != nil {
		fmt.Fprintf(h, "\nmetrics|%d|%.4f|%s|%.2f",
			d.Metrics.Spacing.Quantum,
			d.Metrics.TypeScale.MeanRatio,
			d.Metrics.Colors.Temperature,
			d.Metrics.Radii.MedianRadius)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// FingerprintSet returns the sorted fingerprints of a DTR group. The sorted
// set is the cache identity of a synthesis.
func FingerprintSet(dtrs []*taste.DTR) []string {
	fps := make([]string, 0, len(dtrs))
	for _, d := range dtrs {
		fps = append(fps, Fingerprint(d))
	}
	sort.Strings(fps)
	return fps
}
