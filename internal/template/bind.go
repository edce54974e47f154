package tmpl

import (
	"errors"
	"fmt"
)

var ErrTooManySpeakers = errors.New("more speakers than speaker slots")

// PlaceholderMap is a template bound to the speakers of one event. Speaker
// i renders into Speakers[i].
type PlaceholderMap struct {
	Template *Template
	Speakers []SpeakerSlots
	// Unused are the trailing slot groups no speaker binds to.
	Unused []SpeakerSlots
}

// Bind fails rather than silently dropping a speaker when the template has
// fewer slot groups than speakers.
func Bind(t *Template, speakerCount int) (*PlaceholderMap, error) {
	groups := t.Descriptor.Speakers
	if speakerCount > len(groups) {
		return nil, fmt.Errorf("template %q: %w: %d slots, %d speakers",
			t.Name, ErrTooManySpeakers, len(groups), speakerCount)
	}
	return &PlaceholderMap{
		Template: t,
		Speakers: groups[:speakerCount],
		Unused:   groups[speakerCount:],
	}, nil
}
