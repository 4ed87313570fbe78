package valueobjects

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SubjectKind identifies what a subject name points at.
type SubjectKind string

const (
	SubjectTimeline    SubjectKind = "timeline"
	SubjectExhibit     SubjectKind = "exhibit"
	SubjectContentItem SubjectKind = "contentitem"
	SubjectTour        SubjectKind = "tour"
	SubjectUser        SubjectKind = "user"
	SubjectBlank       SubjectKind = "_"
)

// Subject is a parsed subject name such as "timeline:<uuid>" or "_:b0".
type Subject struct {
	Kind  SubjectKind
	ID    uuid.UUID
	Label string
}

// ParseSubject splits a subject name into its kind and identifier.
// Blank nodes keep their label; every other kind requires a uuid.
func ParseSubject(name string) (Subject, error) {
	prefix, rest, ok := strings.Cut(name, ":")
	if !ok || rest == "" {
		return Subject{}, fmt.Errorf("subject %q has no kind prefix", name)
	}

	kind := SubjectKind(strings.ToLower(prefix))
	switch kind {
	case SubjectBlank:
		return Subject{Kind: kind, Label: rest}, nil
	case SubjectTimeline, SubjectExhibit, SubjectContentItem, SubjectTour, SubjectUser:
		id, err := ParseID(rest)
		if err != nil {
			return Subject{}, err
		}
		return Subject{Kind: kind, ID: id}, nil
	default:
		return Subject{}, fmt.Errorf("unknown subject kind %q", prefix)
	}
}

// Name renders the subject back into its textual form.
func (s Subject) Name() string {
	if s.Kind == SubjectBlank {
		return "_:" + s.Label
	}
	return string(s.Kind) + ":" + s.ID.String()
}

// IsBlank reports whether the subject is a blank node.
func (s Subject) IsBlank() bool {
	return s.Kind == SubjectBlank
}
