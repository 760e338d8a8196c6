package transform

import (
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// AnonymizePredicate returns a Predicate that drops every tag in
// tag.IdentifyingElements, keeping everything else. Pairs with
// FilterTransform for callers that want identifying elements removed
// outright rather than replaced in place.
func AnonymizePredicate() Predicate {
	return func(t tag.Tag, _ vr.VR, _ []LocationFrame) bool {
		_, identifying := tag.IdentifyingElements[t]
		return !identifying
	}
}
