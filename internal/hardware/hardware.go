// Package hardware reads the controller's slider and button state.
//
// The editor never writes to the device; it only shows the latest snapshot.
package hardware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// State is one reading of the controller.
type State struct {
	Sliders   []float64 `json:"sliders"`
	Buttons   []bool    `json:"buttons"`
	Connected bool      `json:"connected"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{Connected: s.Connected}
	if s.Sliders != nil {
		out.Sliders = append([]float64(nil), s.Sliders...)
	}
	if s.Buttons != nil {
		out.Buttons = append([]bool(nil), s.Buttons...)
	}
	return out
}

// Source produces controller readings.
type Source interface {
	State(ctx context.Context) (State, error)
}

// Disconnected is a Source for sessions without a controller.
type Disconnected struct{}

func (Disconnected) State(context.Context) (State, error) {
	return State{}, nil
}

// FileSource reads a JSON snapshot written by an external bridge process.
type FileSource struct {
	Path string
}

var ErrNoSnapshot = errors.New("no hardware snapshot")

func (s FileSource) State(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, ErrNoSnapshot
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode hardware snapshot: %w", err)
	}
	for i, v := range st.Sliders {
		st.Sliders[i] = max(0, min(v, 1))
	}
	return st, nil
}
