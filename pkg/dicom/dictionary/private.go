package dictionary

import (
	"fmt"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// privateEntry is a private-dictionary record, addressed by the creator
// string read from the data set's private-creator reservation tag rather
// than by tag alone, since two devices can reuse the same block with
// different meanings.
type privateEntry struct {
	VR      vr.VR
	VM      VM
	Keyword string
	Name    string
}

// privateKey addresses one element within a registered creator's block.
// offset is the low byte of the tag's element (the part below the block
// number), matching how a private block owns 0xXX00..0xXXFF.
type privateKey struct {
	creator string
	block   uint16
	offset  uint16
}

// privateDictionary holds the handful of private blocks this module knows
// by name. Real deployments register many more; this is the seed a site
// would extend, following the same creator+block+offset addressing.
var privateDictionary = map[privateKey]privateEntry{
	{"SGI-DICOS-2007", 0x10, 0x01}: {vr.CS, VM{1, 1}, "ObjectOfInspectionType", "Object of Inspection Type"},
	{"SGI-DICOS-2007", 0x10, 0x02}: {vr.SQ, VM{1, 0}, "ThreatDetectionReport", "Threat Detection Report Sequence"},
	{"SGI-DICOS-2007", 0x10, 0x03}: {vr.DS, VM{1, 1}, "AlarmDecisionThreshold", "Alarm Decision Threshold"},
}

func lookupPrivate(t tag.Tag, creator string, block, offset uint16) (Entry, bool) {
	pe, ok := privateDictionary[privateKey{creator, block, offset}]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Tag:     t,
		VR:      pe.VR,
		VM:      pe.VM,
		Keyword: fmt.Sprintf("%s.%s", creator, pe.Keyword),
		Name:    pe.Name,
	}, true
}
