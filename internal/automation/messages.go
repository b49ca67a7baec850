package automation

import (
	"fmt"

	"github.com/aidanlsb/ebbinghaus/internal/refresh"
)

// InsertedOffsetsElsewhereMessage is shown after inserting offsets outside a template page.
const InsertedOffsetsElsewhereMessage = "Inserted offsets. (Offsets auto-update only on template source pages.)"

// InsertedOffsetsMessage is shown after inserting offsets into a template page.
func InsertedOffsetsMessage(s refresh.Stats) string {
	return fmt.Sprintf("Inserted offsets into template. inputsUpdated=%d", s.InputsUpdated)
}

// InsertedRangeMessage is shown after inserting a RANGE block.
func InsertedRangeMessage(s refresh.Stats) string {
	return fmt.Sprintf("Inserted RANGE. inputsUpdated=%d", s.InputsUpdated)
}

// TemplatesUpdatedMessage reports a manual template pass.
func TemplatesUpdatedMessage(s refresh.Stats) string {
	return fmt.Sprintf("Template offsets updated. inputsUpdated=%d (found=%d, marked=%d)",
		s.InputsUpdated, s.InputsFound, s.Marked)
}

// RangeUpdatedMessage reports a manual range pass.
func RangeUpdatedMessage(s refresh.Stats) string {
	return fmt.Sprintf("RANGE updated on this page. inputsUpdated=%d (found=%d, marked=%d)",
		s.InputsUpdated, s.InputsFound, s.Marked)
}
