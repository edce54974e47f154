package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// rawEvent accepts both the speaker1/speaker2 shape and the speakers array.
type rawEvent struct {
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	URL       string    `json:"url"`
	Speaker1  *Speaker  `json:"speaker1"`
	Speaker2  *Speaker  `json:"speaker2"`
	Speakers  []Speaker `json:"speakers"`
	Templates []string  `json:"templates"`
}

// Parse decodes one event document and normalizes it into an Event.
func Parse(r io.Reader) (Event, error) {
	var raw rawEvent
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}

	ev := Event{
		Title:     raw.Title,
		Subtitle:  raw.Subtitle,
		Date:      raw.Date,
		Time:      raw.Time,
		URL:       raw.URL,
		Speakers:  raw.Speakers,
		Templates: raw.Templates,
	}
	if len(ev.Speakers) == 0 && (raw.Speaker1 != nil || raw.Speaker2 != nil) {
		ev.Legacy = true
		ev.Speakers = []Speaker{deref(raw.Speaker1), deref(raw.Speaker2)}
	}
	if len(ev.Templates) == 0 {
		ev.Templates = []string{DefaultTemplate}
	}
	return ev, nil
}

func ParseBytes(b []byte) (Event, error) {
	return Parse(bytes.NewReader(b))
}

// Load reads and parses the event file at path.
func Load(path string) (Event, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Event{}, err
	}
	ev, err := ParseBytes(b)
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", path, err)
	}
	return ev, nil
}

func deref(s *Speaker) Speaker {
	if s == nil {
		return Speaker{}
	}
	return *s
}
