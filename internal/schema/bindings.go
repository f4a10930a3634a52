package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/deckcfg/internal/model"
)

// DecodeBindings decodes a bindings document. A document that is not a
// list yields no bindings; entries that do not match the schema are
// dropped one by one. Duplicate detection is left to the repair pass.
func (c *Codec) DecodeBindings(data []byte) ([]model.Binding, []Defaulted) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []model.Binding{}
	var report []Defaulted

	doc, err := c.extract("binds.json", data)
	if err != nil {
		return out, append(report, Defaulted{Field: "document", Reason: err.Error()})
	}
	iter, err := doc.List()
	if err != nil {
		return out, append(report, Defaulted{Field: "document", Reason: "not a list"})
	}
	constraint := c.def("#Binding")
	for i := 0; iter.Next(); i++ {
		u, ok := conform(constraint, iter.Value())
		if !ok {
			report = append(report, Defaulted{Field: "[" + strconv.Itoa(i) + "]", Reason: "does not match schema"})
			continue
		}
		var b model.Binding
		if err := u.Decode(&b); err != nil {
			report = append(report, Defaulted{Field: "[" + strconv.Itoa(i) + "]", Reason: err.Error()})
			continue
		}
		out = append(out, b)
	}
	return out, report
}

// EncodeBindings renders bindings as an indented JSON array.
func (c *Codec) EncodeBindings(bindings []model.Binding) ([]byte, error) {
	if bindings == nil {
		bindings = []model.Binding{}
	}
	data, err := json.MarshalIndent(bindings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bindings: %w", err)
	}
	if err := c.validate("binds.json", "#Bindings", data); err != nil {
		return nil, fmt.Errorf("encode bindings: %w", err)
	}
	return data, nil
}
