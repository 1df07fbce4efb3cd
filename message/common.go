package message

import (
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// BlockingType regulates whether an action may run during movement or in
// parallel with other actions.
type BlockingType string

const (
	// BlockingNone allows the action in parallel with others, including movement.
	BlockingNone BlockingType = "NONE"
	// BlockingSoft allows the action in parallel with others, but not while moving.
	BlockingSoft BlockingType = "SOFT"
	// BlockingHard forbids any other action while this one runs.
	BlockingHard BlockingType = "HARD"
)

// IsValid reports whether b is a defined blocking type.
func (b BlockingType) IsValid() bool {
	switch b {
	case BlockingNone, BlockingSoft, BlockingHard:
		return true
	}
	return false
}

// ActionParameter is one key/value pair customizing an action. Value can be
// a string, number, bool, array or object.
type ActionParameter struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Action is a single task for the AGV, carried by orders (on nodes and
// edges) and by instantActions messages. ActionID keys the matching
// actionState in state messages.
type Action struct {
	ActionType        string            `json:"actionType"`
	ActionID          string            `json:"actionId"`
	ActionDescription string            `json:"actionDescription,omitempty"`
	BlockingType      BlockingType      `json:"blockingType"`
	ActionParameters  []ActionParameter `json:"actionParameters,omitempty"`
}

// Validate checks the required action fields.
func (a *Action) Validate() error {
	if a.ActionType == "" {
		return fmt.Errorf("action missing actionType: %w", errors.ErrInvalidMessage)
	}
	if a.ActionID == "" {
		return fmt.Errorf("action %q missing actionId: %w", a.ActionType, errors.ErrInvalidMessage)
	}
	if !a.BlockingType.IsValid() {
		return fmt.Errorf("action %q has blockingType %q: %w", a.ActionID, a.BlockingType, errors.ErrInvalidMessage)
	}
	for _, p := range a.ActionParameters {
		if p.Key == "" {
			return fmt.Errorf("action %q has parameter without key: %w", a.ActionID, errors.ErrInvalidMessage)
		}
	}
	return nil
}

// Parameter returns the value for key and whether it is present.
func (a *Action) Parameter(key string) (any, bool) {
	for _, p := range a.ActionParameters {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// AGVPosition is a position on a map in world coordinates, reported in state
// and visualization messages.
type AGVPosition struct {
	X                   float64  `json:"x"`
	Y                   float64  `json:"y"`
	Theta               float64  `json:"theta"`
	MapID               string   `json:"mapId"`
	MapDescription      string   `json:"mapDescription,omitempty"`
	PositionInitialized bool     `json:"positionInitialized"`
	LocalizationScore   *float64 `json:"localizationScore,omitempty"`
	DeviationRange      *float64 `json:"deviationRange,omitempty"`
}

// Velocity is the AGV's velocity in its own coordinate system.
type Velocity struct {
	VX    *float64 `json:"vx,omitempty"`
	VY    *float64 `json:"vy,omitempty"`
	Omega *float64 `json:"omega,omitempty"`
}

// ControlPoint is one control point of a NURBS trajectory. Weight defaults
// to 1.0 when omitted.
type ControlPoint struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Weight *float64 `json:"weight,omitempty"`
}

// Trajectory describes the curve between two nodes as a NURBS.
type Trajectory struct {
	Degree        int            `json:"degree"`
	KnotVector    []float64      `json:"knotVector"`
	ControlPoints []ControlPoint `json:"controlPoints"`
}

// Validate checks the NURBS consistency rule: the knot vector has
// len(controlPoints) + degree + 1 entries.
func (t *Trajectory) Validate() error {
	if t.Degree < 1 {
		return fmt.Errorf("trajectory degree %d < 1: %w", t.Degree, errors.ErrInvalidMessage)
	}
	if len(t.ControlPoints) == 0 {
		return fmt.Errorf("trajectory without control points: %w", errors.ErrInvalidMessage)
	}
	if want := len(t.ControlPoints) + t.Degree + 1; len(t.KnotVector) != want {
		return fmt.Errorf("trajectory knot vector has %d entries, want %d: %w",
			len(t.KnotVector), want, errors.ErrInvalidMessage)
	}
	return nil
}

// BoundingBoxReference locates a load bounding box relative to the AGV. The
// reference point is the center of the box bottom surface.
type BoundingBoxReference struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Z     float64  `json:"z"`
	Theta *float64 `json:"theta,omitempty"`
}

// LoadDimensions is the bounding box of a load in meters.
type LoadDimensions struct {
	Length float64  `json:"length"`
	Width  float64  `json:"width"`
	Height *float64 `json:"height,omitempty"`
}
