package telemetry

// taxonomy.go classifies telemetry columns by naming convention.
//
// There is no declared schema in a telemetry CSV; identity is carried by the
// column name itself, using the PREFIX_name_unit convention:
//
//   - POS_*                  position/geometry (mandatory core set)
//   - COMM_*_dB              communication link margins
//   - PL<id>_*               payload instrument groups (e.g. PL_GMTI_Status)
//   - <SUBSYS>_*             everything else with an uppercase prefix is a
//     subsystem sensor (GNC_Roll_deg, PROP_EngineRPM_pct, ...)

import (
	"regexp"
	"sort"
	"strings"
)

// ColumnClass identifies the role a column plays, derived from its name.
type ColumnClass int

const (
	ClassUnknown ColumnClass = iota
	ClassTimestamp
	ClassPosition
	ClassSubsystem
	ClassPayload
	ClassCommLink
)

func (c ColumnClass) String() string {
	switch c {
	case ClassTimestamp:
		return "timestamp"
	case ClassPosition:
		return "position"
	case ClassSubsystem:
		return "subsystem"
	case ClassPayload:
		return "payload"
	case ClassCommLink:
		return "commlink"
	default:
		return "unknown"
	}
}

// prefixPattern matches the leading uppercase identifier of a conventionally
// named column, e.g. "GNC" in GNC_Roll_deg.
var prefixPattern = regexp.MustCompile(`^([A-Z0-9]+)_`)

// payloadPattern matches the full payload identifier of a PL column. Payload
// groups name the instrument in a second segment ("PL_GMTI_Status" belongs to
// payload PL_GMTI), so the bare "PL" prefix alone does not identify one.
var payloadPattern = regexp.MustCompile(`^(PL[A-Z0-9]*(?:_[A-Z0-9]+)?)_`)

// Prefix returns the uppercase naming prefix of a column, or "" if the column
// does not follow the PREFIX_name convention.
func Prefix(column string) string {
	m := prefixPattern.FindStringSubmatch(column)
	if m == nil {
		return ""
	}
	return m[1]
}

// PayloadID returns the payload identifier for a PL-prefixed column, e.g.
// "PL_GMTI" for PL_GMTI_Status. Falls back to the bare prefix for payload
// columns with no instrument segment.
func PayloadID(column string) string {
	if m := payloadPattern.FindStringSubmatch(column); m != nil {
		return m[1]
	}
	return Prefix(column)
}

// ClassifyColumn maps a column name to its taxonomy class. The timestamp
// column name is matched exactly, case-sensitive.
func ClassifyColumn(column, timestampColumn string) ColumnClass {
	if column == timestampColumn {
		return ClassTimestamp
	}
	if strings.HasPrefix(column, "COMM_") && strings.HasSuffix(column, "_dB") {
		return ClassCommLink
	}
	prefix := Prefix(column)
	switch {
	case prefix == "":
		return ClassUnknown
	case prefix == "POS":
		return ClassPosition
	case prefix == "COMM":
		return ClassCommLink
	case strings.HasPrefix(prefix, "PL"):
		return ClassPayload
	default:
		return ClassSubsystem
	}
}

// Discover derives the subsystem and payload identifier sets from a column
// list. It is a pure function of the names: stable, sorted output, independent
// of row content, so report generators can re-derive groupings from an
// already-validated table.
func Discover(columns []string) (subsystems, payloads []string) {
	subSet := map[string]bool{}
	plSet := map[string]bool{}

	for _, col := range columns {
		prefix := Prefix(col)
		if prefix == "" {
			continue
		}
		switch {
		case strings.HasPrefix(prefix, "PL"):
			plSet[PayloadID(col)] = true
		case prefix == "POS" || prefix == "COMM":
			// Position and comm-link columns belong to neither list.
		default:
			subSet[prefix] = true
		}
	}

	subsystems = make([]string, 0, len(subSet))
	for s := range subSet {
		subsystems = append(subsystems, s)
	}
	payloads = make([]string, 0, len(plSet))
	for p := range plSet {
		payloads = append(payloads, p)
	}
	sort.Strings(subsystems)
	sort.Strings(payloads)
	return subsystems, payloads
}

// CommLinks returns the comm-link margin columns (COMM_*_dB) in header order.
func CommLinks(columns []string) []string {
	var links []string
	for _, col := range columns {
		if strings.HasPrefix(col, "COMM_") && strings.HasSuffix(col, "_dB") {
			links = append(links, col)
		}
	}
	return links
}

// SubsystemColumns returns the columns belonging to the given subsystem or
// payload prefix, in header order.
func SubsystemColumns(columns []string, prefix string) []string {
	var out []string
	for _, col := range columns {
		if strings.HasPrefix(col, prefix+"_") {
			out = append(out, col)
		}
	}
	return out
}
