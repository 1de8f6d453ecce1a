package segment

import (
	"fmt"
	"time"
)

// DefaultSegmentID is the cohort used when no configured segment matches or
// when classification is impossible because the store or the configuration is
// unavailable.
const DefaultSegmentID = "regular"

// Override pins a feature decision for every member of a segment.
type Override struct {
	Enabled bool   `json:"enabled" yaml:"enabled" bson:"enabled"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty" bson:"variant,omitempty"`
}

// Criteria describes the profile attributes a user must have to qualify for
// a segment. Zero-valued fields are not checked.
type Criteria struct {
	MinSessions         int      `json:"min_sessions,omitempty" yaml:"min_sessions,omitempty" bson:"min_sessions,omitempty"`
	UserTypes           []string `json:"user_types,omitempty" yaml:"user_types,omitempty" bson:"user_types,omitempty"`
	SignupDaysAgo       int      `json:"signup_days_ago,omitempty" yaml:"signup_days_ago,omitempty" bson:"signup_days_ago,omitempty"`
	EngagementThreshold float64  `json:"engagement_threshold,omitempty" yaml:"engagement_threshold,omitempty" bson:"engagement_threshold,omitempty"`
}

// Segment is a named user cohort with matching criteria and per-feature
// defaults.
type Segment struct {
	ID string `json:"id" yaml:"id" bson:"id"`

	// Percentage is illustrative only: it documents the expected share of
	// the user base but never constrains cohort population. Assignment is
	// purely criteria-based, so configured percentages need not sum to 100.
	Percentage float64 `json:"percentage,omitempty" yaml:"percentage,omitempty" bson:"percentage,omitempty"`

	// Priority orders classification: lower values are matched first. Ties
	// break on segment ID so classification stays deterministic.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty" bson:"priority,omitempty"`

	Criteria Criteria `json:"criteria,omitempty" yaml:"criteria,omitempty" bson:"criteria,omitempty"`

	// Overrides maps feature IDs to the decision members of this segment
	// receive. A feature with no override evaluates disabled for the
	// segment.
	Overrides map[string]Override `json:"feature_overrides,omitempty" yaml:"feature_overrides,omitempty" bson:"feature_overrides,omitempty"`
}

// Validate checks the segment definition for structural problems.
func (s Segment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: segment id cannot be empty", ErrInvalidSegment)
	}
	if s.Percentage < 0 || s.Percentage > 100 {
		return fmt.Errorf("%w: segment %q percentage must be within [0,100]", ErrInvalidSegment, s.ID)
	}
	if s.Criteria.EngagementThreshold < 0 || s.Criteria.EngagementThreshold > 1 {
		return fmt.Errorf("%w: segment %q engagement threshold must be within [0,1]", ErrInvalidSegment, s.ID)
	}
	return nil
}

// Profile is a snapshot of the user attributes used for classification.
type Profile struct {
	UserType        string    `json:"user_type,omitempty" yaml:"user_type,omitempty" bson:"user_type,omitempty"`
	IsPremium       bool      `json:"is_premium,omitempty" yaml:"is_premium,omitempty" bson:"is_premium,omitempty"`
	SessionCount    int       `json:"session_count,omitempty" yaml:"session_count,omitempty" bson:"session_count,omitempty"`
	SignupAt        time.Time `json:"signup_at,omitzero" yaml:"signup_at,omitempty" bson:"signup_at,omitempty"`
	EngagementScore float64   `json:"engagement_score,omitempty" yaml:"engagement_score,omitempty" bson:"engagement_score,omitempty"`
}

// Assignment records the cohort a user was placed in, together with the
// profile snapshot the decision was based on. Immutable once stored unless
// explicitly reset.
type Assignment struct {
	UserID     string    `json:"user_id" bson:"user_id"`
	SegmentID  string    `json:"segment_id" bson:"segment_id"`
	AssignedAt time.Time `json:"assigned_at" bson:"assigned_at"`
	Profile    Profile   `json:"profile" bson:"profile"`
}

// Matches reports whether the profile satisfies the criteria at the given
// time. A premium profile counts as user type "premium" even when the
// explicit type differs, so premium status alone qualifies for
// premium-targeted segments.
func (c Criteria) Matches(p Profile, now time.Time) bool {
	if len(c.UserTypes) > 0 && !matchesUserType(c.UserTypes, p) {
		return false
	}
	if p.SessionCount < c.MinSessions {
		return false
	}
	if c.SignupDaysAgo > 0 {
		if p.SignupAt.IsZero() {
			return false
		}
		if now.Sub(p.SignupAt) < time.Duration(c.SignupDaysAgo)*24*time.Hour {
			return false
		}
	}
	if c.EngagementThreshold > 0 && p.EngagementScore <= c.EngagementThreshold {
		return false
	}
	return true
}

func matchesUserType(types []string, p Profile) bool {
	for _, t := range types {
		if t == p.UserType {
			return true
		}
		if p.IsPremium && t == "premium" {
			return true
		}
	}
	return false
}
