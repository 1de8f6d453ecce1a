package configstore

import (
	"context"
	"errors"
	"time"

	"github.com/advisorly/experimentkit/pkg/feature"
	"github.com/advisorly/experimentkit/pkg/segment"
)

// FlagsDocument is the complete feature flag configuration, versioned as a
// unit so concurrent admin edits cannot silently overwrite each other.
type FlagsDocument struct {
	Version   int64                   `json:"version" yaml:"version" bson:"version"`
	Flags     map[string]feature.Flag `json:"flags" yaml:"flags" bson:"flags"`
	UpdatedAt time.Time               `json:"updated_at,omitzero" yaml:"updated_at,omitempty" bson:"updated_at"`
}

// Validate checks every flag and the dependency graph as a whole. Map keys
// must agree with flag IDs so lookups by either never diverge.
func (d FlagsDocument) Validate() error {
	for id, flag := range d.Flags {
		if id != flag.ID {
			return errors.Join(ErrInvalidDocument,
				errors.New("flag key "+id+" does not match flag id "+flag.ID))
		}
		if err := flag.Validate(); err != nil {
			return errors.Join(ErrInvalidDocument, err)
		}
	}
	if err := feature.ValidateGraph(d.Flags); err != nil {
		return errors.Join(ErrInvalidDocument, err)
	}
	return nil
}

// SegmentsDocument is the complete segment configuration.
type SegmentsDocument struct {
	Version   int64                      `json:"version" yaml:"version" bson:"version"`
	Segments  map[string]segment.Segment `json:"segments" yaml:"segments" bson:"segments"`
	UpdatedAt time.Time                  `json:"updated_at,omitzero" yaml:"updated_at,omitempty" bson:"updated_at"`
}

// Validate checks every segment definition.
func (d SegmentsDocument) Validate() error {
	for id, seg := range d.Segments {
		if id != seg.ID {
			return errors.Join(ErrInvalidDocument,
				errors.New("segment key "+id+" does not match segment id "+seg.ID))
		}
		if err := seg.Validate(); err != nil {
			return errors.Join(ErrInvalidDocument, err)
		}
	}
	return nil
}

// Store persists the two configuration documents. Get returns ErrNotFound
// when nothing has been stored yet; Put rejects stale versions with
// ErrVersionConflict and invalid documents with ErrInvalidDocument.
type Store interface {
	GetFlags(ctx context.Context) (FlagsDocument, error)
	PutFlags(ctx context.Context, doc FlagsDocument) error
	GetSegments(ctx context.Context) (SegmentsDocument, error)
	PutSegments(ctx context.Context, doc SegmentsDocument) error
}
