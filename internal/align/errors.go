package align

import (
	"errors"
	"fmt"

	"github.com/banshee-data/isoalign/internal/feature"
)

// ErrTaskStarted is returned when Run is called on a task that has already
// left the WAITING state.
var ErrTaskStarted = errors.New("align: task already started")

// ConfigError reports an invalid alignment parameter. It is returned before
// any sample is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExtractionError reports that isotope patterns could not be obtained for
// a sample.
type ExtractionError struct {
	Sample feature.SampleID
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("isotope pattern extraction failed for sample %q: %v", e.Sample, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
