package tag

import (
	"encoding/json"
	"fmt"
)

// Hex8 returns the 8-uppercase-hex-character rendering DICOM JSON uses as a
// map key, e.g. "00189353".
func (t Tag) Hex8() string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

// FromHex8 parses an 8-hex-character tag string (DICOM JSON's key format)
// back into a Tag.
func FromHex8(s string) (Tag, error) {
	if len(s) != 8 {
		return Tag{}, fmt.Errorf("tag: invalid hex8 tag %q: want 8 characters", s)
	}
	var group, element uint16
	if _, err := fmt.Sscanf(s[0:4], "%04X", &group); err != nil {
		return Tag{}, fmt.Errorf("tag: invalid hex8 tag %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(s[4:8], "%04X", &element); err != nil {
		return Tag{}, fmt.Errorf("tag: invalid hex8 tag %q: %w", s, err)
	}
	return Tag{Group: group, Element: element}, nil
}

// MarshalJSON renders the tag as its canonical string form.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
