package feature

import (
	"fmt"
	"sort"
	"time"

	"github.com/advisorly/experimentkit/pkg/bucket"
)

// HourWindow is a daily window of local hours during which a time-sensitive
// feature is active. From is inclusive, To exclusive; windows may wrap past
// midnight (From 22, To 6).
type HourWindow struct {
	From int `json:"from" yaml:"from" bson:"from"`
	To   int `json:"to" yaml:"to" bson:"to"`
}

// Contains reports whether the hour (0-23) falls inside the window.
func (w HourWindow) Contains(hour int) bool {
	if w.From == w.To {
		return false
	}
	if w.From < w.To {
		return hour >= w.From && hour < w.To
	}
	return hour >= w.From || hour < w.To
}

// Flag is a feature flag definition.
type Flag struct {
	ID          string `json:"id" yaml:"id" bson:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`

	// Enabled is the global kill switch: a disabled flag evaluates off for
	// everyone regardless of rollout or overrides.
	Enabled bool `json:"enabled" yaml:"enabled" bson:"enabled"`

	// RolloutPercent is the share of users, in [0,100], for whom the flag
	// may be enabled. Inclusion is decided by deterministic bucketing.
	RolloutPercent float64 `json:"rollout_percent" yaml:"rollout_percent" bson:"rollout_percent"`

	// Dependencies lists flags that must evaluate enabled for this flag to
	// be considered. The dependency graph must be acyclic.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty" bson:"dependencies,omitempty"`

	// Variants maps variant names to relative weights for deterministic
	// weighted selection. Empty means the single implicit "default" variant.
	Variants map[string]int `json:"variants,omitempty" yaml:"variants,omitempty" bson:"variants,omitempty"`

	// Heavy marks features expensive enough to shed under system load.
	Heavy bool `json:"heavy,omitempty" yaml:"heavy,omitempty" bson:"heavy,omitempty"`

	// BasicVariant, when set, is the simplified variant served to very
	// short sessions. Must name a key of Variants.
	BasicVariant string `json:"basic_variant,omitempty" yaml:"basic_variant,omitempty" bson:"basic_variant,omitempty"`

	// ActiveHours, when set, restricts the feature to a daily hour window.
	ActiveHours *HourWindow `json:"active_hours,omitempty" yaml:"active_hours,omitempty" bson:"active_hours,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Validate checks the flag definition for structural problems. Dependency
// resolution is graph-wide and checked separately by ValidateGraph.
func (f Flag) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: flag id cannot be empty", ErrInvalidFlag)
	}
	if f.RolloutPercent < 0 || f.RolloutPercent > 100 {
		return fmt.Errorf("%w: flag %q rollout percent must be within [0,100]", ErrInvalidFlag, f.ID)
	}
	for name, weight := range f.Variants {
		if name == "" {
			return fmt.Errorf("%w: flag %q has a variant with an empty name", ErrInvalidFlag, f.ID)
		}
		if weight <= 0 {
			return fmt.Errorf("%w: flag %q variant %q weight must be positive", ErrInvalidFlag, f.ID, name)
		}
	}
	if f.BasicVariant != "" {
		if _, ok := f.Variants[f.BasicVariant]; !ok {
			return fmt.Errorf("%w: flag %q basic variant %q is not a declared variant", ErrInvalidFlag, f.ID, f.BasicVariant)
		}
	}
	if f.ActiveHours != nil {
		if f.ActiveHours.From < 0 || f.ActiveHours.From > 23 || f.ActiveHours.To < 0 || f.ActiveHours.To > 24 {
			return fmt.Errorf("%w: flag %q active hours out of range", ErrInvalidFlag, f.ID)
		}
	}
	return nil
}

// ValidateGraph checks that every dependency exists and that the dependency
// graph is acyclic. Admin operations call it before persisting flag changes
// so a cycle can never reach the evaluation path through configuration.
func ValidateGraph(flags map[string]Flag) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(flags))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: involving flag %q", ErrCycleDetected, id)
		}
		state[id] = visiting

		for _, dep := range flags[id].Dependencies {
			if _, ok := flags[dep]; !ok {
				return fmt.Errorf("%w: flag %q depends on unknown flag %q", ErrInvalidFlag, id, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[id] = done
		return nil
	}

	// Deterministic iteration keeps error messages stable across runs.
	ids := make([]string, 0, len(flags))
	for id := range flags {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// PickVariant deterministically selects a variant for the user by weight.
// The bucketing key is salted with the flag ID so a user's variants are
// uncorrelated across features, and with a fixed suffix so variant selection
// is uncorrelated with rollout inclusion.
func (f Flag) PickVariant(userID string) string {
	if len(f.Variants) == 0 {
		return "default"
	}

	names := make([]string, 0, len(f.Variants))
	total := 0
	for name, weight := range f.Variants {
		names = append(names, name)
		total += weight
	}
	sort.Strings(names)

	point := bucket.Hash(userID+":"+f.ID+":variant") * float64(total)
	acc := 0.0
	for _, name := range names {
		acc += float64(f.Variants[name])
		if point < acc {
			return name
		}
	}
	return names[len(names)-1]
}
