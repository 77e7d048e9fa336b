package taste

import (
	"fmt"
	"math"
)

// ValidateDTR checks schema conformance of an extracted DTR: identity fields,
// required sections, and axis value ranges. Degraded sections are legal; a
// missing section is not.
func ValidateDTR(d *DTR) error {
	if d == nil {
		return fmt.Errorf("dtr: nil document")
	}
	if d.SchemaVersion == "" {
		return fmt.Errorf("dtr: missing schema_version")
	}
	if d.Resource.Hash == "" {
		return fmt.Errorf("dtr: missing resource hash")
	}
	if d.Resource.Kind != SourceFigmaExport && d.Resource.Kind != SourceScreenshot {
		return fmt.Errorf("dtr: unknown resource kind %q", d.Resource.Kind)
	}

	for _, key := range RequiredSections {
		section := d.Section(key)
		if section == nil {
			return fmt.Errorf("dtr: missing section %q", key)
		}
		if err := validateSection(section); err != nil {
			return fmt.Errorf("dtr: section %q: %w", key, err)
		}
	}
	return nil
}

func validateSection(s *Section) error {
	for _, axis := range s.Axes {
		if err := validateAxis(axis); err != nil {
			return err
		}
	}
	return nil
}

func validateAxis(a Axis) error {
	if a.Name == "" {
		return fmt.Errorf("axis with empty name")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("axis %q: confidence %v out of range [0,1]", a.Name, a.Confidence)
	}
	switch a.Kind {
	case AxisNumeric:
		if math.IsNaN(a.Number) || math.IsInf(a.Number, 0) {
			return fmt.Errorf("axis %q: non-finite number", a.Name)
		}
	case AxisCategorical:
		if a.Value == "" {
			return fmt.Errorf("axis %q: categorical axis with empty value", a.Name)
		}
	default:
		return fmt.Errorf("axis %q: unknown kind %q", a.Name, a.Kind)
	}
	return nil
}

// ValidateDTM checks a synthesized model before it is stored or served.
func ValidateDTM(m *DTM) error {
	if m == nil {
		return fmt.Errorf("dtm: nil document")
	}
	if m.ID == "" {
		return fmt.Errorf("dtm: missing id")
	}
	if m.SchemaVersion == "" {
		return fmt.Errorf("dtm: missing schema_version")
	}
	if len(m.Fingerprints) == 0 {
		return fmt.Errorf("dtm: no contributing fingerprints")
	}
	for _, axis := range m.Consensus {
		if axis.Name == "" {
			return fmt.Errorf("dtm: consensus axis with empty name")
		}
		if axis.Agreement < 0 || axis.Agreement > 1 {
			return fmt.Errorf("dtm: axis %q: agreement %v out of range [0,1]", axis.Name, axis.Agreement)
		}
		if axis.Sources <= 0 {
			return fmt.Errorf("dtm: axis %q: no sources", axis.Name)
		}
	}
	return nil
}
