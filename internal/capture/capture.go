// Package capture validates newly scraped jurisdiction data before it is
// submitted to the review queue. Structural validation lives in an embedded
// CUE schema; anything that passes here is well-formed but not yet trusted,
// and still goes through tolerance evaluation.
package capture

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/huntwise/drawcore/internal/airlock"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one structural problem found in a captured snapshot.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateSnapshot checks a staging snapshot against the capture schema.
// Returns nil when the snapshot is structurally valid.
func ValidateSnapshot(s airlock.StagingSnapshot) []ValidationError {
	var errs []ValidationError

	// The zero time serializes to a syntactically fine string, so the CUE
	// schema cannot catch a missing capture timestamp.
	if s.CapturedAt.IsZero() {
		errs = append(errs, ValidationError{Path: "captured_at", Message: "capture timestamp is required"})
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#StagingSnapshot"))
	if err := schema.Err(); err != nil {
		return append(errs, ValidationError{Path: "schema", Message: fmt.Sprintf("compiling capture schema: %v", err)})
	}

	data, err := json.Marshal(s)
	if err != nil {
		return append(errs, ValidationError{Message: fmt.Sprintf("encoding snapshot: %v", err)})
	}
	expr, err := cuejson.Extract(s.ID, data)
	if err != nil {
		return append(errs, ValidationError{Message: fmt.Sprintf("decoding snapshot: %v", err)})
	}

	unified := schema.Unify(ctx.BuildExpr(expr))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			format, args := e.Msg()
			errs = append(errs, ValidationError{
				Path:    strings.Join(e.Path(), "."),
				Message: fmt.Sprintf(format, args...),
			})
		}
	}

	return errs
}
