package configstore

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/advisorly/experimentkit/pkg/feature"
	"github.com/advisorly/experimentkit/pkg/segment"
)

// bootstrapFile is the on-disk shape: one file carrying both documents.
type bootstrapFile struct {
	Version  int64                      `yaml:"version"`
	Flags    map[string]feature.Flag    `yaml:"flags"`
	Segments map[string]segment.Segment `yaml:"segments"`
}

// LoadFile reads a YAML bootstrap file and returns validated flag and
// segment documents sharing the file's version. Flag and segment IDs may be
// omitted in the file; the map key is used then.
func LoadFile(path string) (FlagsDocument, SegmentsDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FlagsDocument{}, SegmentsDocument{}, errors.Join(ErrInvalidDocument, err)
	}
	return Parse(raw)
}

// Parse decodes YAML bootstrap content. See LoadFile.
func Parse(raw []byte) (FlagsDocument, SegmentsDocument, error) {
	var file bootstrapFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return FlagsDocument{}, SegmentsDocument{}, errors.Join(ErrInvalidDocument, err)
	}

	for id, flag := range file.Flags {
		if flag.ID == "" {
			flag.ID = id
			file.Flags[id] = flag
		}
	}
	for id, seg := range file.Segments {
		if seg.ID == "" {
			seg.ID = id
			file.Segments[id] = seg
		}
	}

	flags := FlagsDocument{Version: file.Version, Flags: file.Flags}
	if err := flags.Validate(); err != nil {
		return FlagsDocument{}, SegmentsDocument{}, err
	}

	segments := SegmentsDocument{Version: file.Version, Segments: file.Segments}
	if err := segments.Validate(); err != nil {
		return FlagsDocument{}, SegmentsDocument{}, err
	}

	return flags, segments, nil
}
