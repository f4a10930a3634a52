// Package schema is the typed boundary between persisted JSON documents and
// the in-memory model.
//
// Decoding never fails a load: each field of a document is unified with its
// CUE constraint on its own, and a field that is missing or does not satisfy
// the constraint takes its default while the rest of the document is kept.
// Encoding validates its own output against the same constraints.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// Codec decodes and encodes persisted documents. A cue.Context is not safe
// for concurrent use, so every call holds mu.
type Codec struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewCodec compiles the embedded schema.
func NewCodec() (*Codec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", formatCUEError(err))
	}
	return &Codec{ctx: ctx, schema: v}, nil
}

// MustCodec is NewCodec for callers that cannot recover from a broken
// embedded schema.
func MustCodec() *Codec {
	c, err := NewCodec()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) def(name string) cue.Value {
	return c.schema.LookupPath(cue.ParsePath(name))
}

// extract turns a JSON document into a CUE value. Callers hold mu.
func (c *Codec) extract(name string, data []byte) (cue.Value, error) {
	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	v := c.ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// conform reports whether v satisfies constraint and is fully concrete.
func conform(constraint, v cue.Value) (cue.Value, bool) {
	u := constraint.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return u, false
	}
	return u, true
}

// formatCUEError keeps the first error of a CUE error list, with its
// position when there is one.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return fmt.Errorf("%s: %s", positions[0], first.Error())
	}
	return first
}
