// Package gesture recognizes positional gestures: a gesture fires when the
// head-relative hand position comes within a target's radius, debounced by a
// per-target cooldown.
package gesture

import (
	"fmt"
	"sort"
	"time"

	"github.com/ayusman/posebridge/internal/filter"
	"github.com/ayusman/posebridge/internal/posemath"
)

// Action is the built-in side effect a target carries when it fires.
type Action string

const (
	// ActionNone only reports the event.
	ActionNone Action = "none"
	// ActionRecalibrate zeroes the hand calibration so the current raw
	// position maps onto the target point.
	ActionRecalibrate Action = "recalibrate"
)

// ParseAction converts a configuration name into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case "", ActionNone:
		return ActionNone, nil
	case ActionRecalibrate:
		return ActionRecalibrate, nil
	}
	return "", fmt.Errorf("unknown gesture action %q", s)
}

// Override is a relative hand pose that replaces the hand channels on the
// frame a gesture fires, so the consumer sees a canonical pose for it.
type Override struct {
	Channels filter.Channels
}

// Target is a named point in head-relative space.
type Target struct {
	Name     string
	Point    posemath.Vector3
	Radius   float64       // meters; fires strictly inside
	Cooldown time.Duration // minimum time between two firings
	Action   Action
	Override *Override

	lastTriggeredAt time.Time
}

// LastTriggeredAt returns when the target last fired, or the zero time.
func (t *Target) LastTriggeredAt() time.Time {
	return t.lastTriggeredAt
}

// Validate reports an invalid target definition.
func (t *Target) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("gesture target name is required")
	}
	if t.Radius <= 0 {
		return fmt.Errorf("gesture %q: radius must be positive", t.Name)
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("gesture %q: cooldown must be non-negative", t.Name)
	}
	return nil
}

// Event records one firing.
type Event struct {
	Target   *Target
	Name     string
	Distance float64
	Position posemath.Vector3
	At       time.Time
}

// Recognizer evaluates a set of targets against the hand position each
// frame. It is owned by one frame loop and is not safe for concurrent use.
type Recognizer struct {
	targets []*Target
	OnFire  func(e Event)
}

// NewRecognizer creates a recognizer with the given targets.
func NewRecognizer(targets ...*Target) *Recognizer {
	r := &Recognizer{targets: make([]*Target, 0, len(targets))}
	for _, t := range targets {
		r.Add(t)
	}
	return r
}

// Add registers a target.
func (r *Recognizer) Add(t *Target) {
	if t == nil {
		return
	}
	r.targets = append(r.targets, t)
}

// Remove drops the target with the given name.
func (r *Recognizer) Remove(name string) {
	for i, t := range r.targets {
		if t.Name == name {
			r.targets = append(r.targets[:i], r.targets[i+1:]...)
			return
		}
	}
}

// Targets returns the registered targets.
func (r *Recognizer) Targets() []*Target {
	return r.targets
}

// Evaluate checks every target against pos at time now. A target fires when
// pos is strictly inside its radius and its cooldown has elapsed since the
// last firing; holding the hand in place fires it again once per cooldown.
// Events are sorted closest first.
func (r *Recognizer) Evaluate(pos posemath.Vector3, now time.Time) []Event {
	var events []Event

	for _, t := range r.targets {
		distance := posemath.Distance(pos, t.Point)
		if !(distance < t.Radius) {
			continue
		}
		if !t.lastTriggeredAt.IsZero() && now.Sub(t.lastTriggeredAt) < t.Cooldown {
			continue
		}

		t.lastTriggeredAt = now
		events = append(events, Event{
			Target:   t,
			Name:     t.Name,
			Distance: distance,
			Position: pos,
			At:       now,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Distance < events[j].Distance
	})

	if r.OnFire != nil {
		for _, e := range events {
			r.OnFire(e)
		}
	}

	return events
}

// Reset forgets every target's last firing time.
func (r *Recognizer) Reset() {
	for _, t := range r.targets {
		t.lastTriggeredAt = time.Time{}
	}
}
