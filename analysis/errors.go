package analysis

import (
	"fmt"

	"github.com/jlaustill/c-next-sub006/parser/token"
)

// BitmapWidthError reports a bitmap whose summed field widths do not equal
// its declared backing width.  It is a hard construction-time error: the
// declaration is skipped and the error surfaces as a file-level
// diagnostic.
type BitmapWidthError struct {
	Bitmap   string
	Declared int
	Sum      int
	Source   *token.Location
}

func (e *BitmapWidthError) Error() string {
	return fmt.Sprintf("bitmap %s declares %d bits but its fields sum to %d",
		e.Bitmap, e.Declared, e.Sum)
}

// Warning is a non-fatal finding attached to a resolution result.
type Warning struct {
	Message string
	Source  *token.Location
}

func (w *Warning) String() string {
	if w.Source != nil {
		return fmt.Sprintf("%v: %s", w.Source, w.Message)
	}
	return w.Message
}
