package scenario

import (
	"fmt"
	"log"

	"github.com/louisbranch/emberfall/internal/errors"
)

// AssertionMode selects how expectation failures are handled.
type AssertionMode string

const (
	// AssertionStrict fails the run on the first unmet expectation.
	AssertionStrict AssertionMode = "strict"
	// AssertionLogOnly logs unmet expectations and continues.
	AssertionLogOnly AssertionMode = "log-only"
)

// Assertions applies the configured assertion mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Assertf reports an unmet expectation. In strict mode it returns an
// error; otherwise it logs and returns nil.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionLogOnly {
		if a.Logger != nil {
			a.Logger.Printf("assertion failed: "+format, args...)
		}
		return nil
	}
	return errors.New(errors.CodeAssertionFailed, fmt.Sprintf(format, args...))
}
