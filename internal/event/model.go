package event

import "strings"

// DefaultTemplate is rendered when an event does not name any template.
const DefaultTemplate = "classic"

type Speaker struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname,omitempty"`
	Fullname string `json:"fullname,omitempty"`
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// DisplayName prefers Fullname and falls back to "Name Lastname".
func (s Speaker) DisplayName() string {
	if s.Fullname != "" {
		return s.Fullname
	}
	return strings.TrimSpace(s.Name + " " + s.Lastname)
}

type Event struct {
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	URL       string    `json:"url"`
	Speakers  []Speaker `json:"speakers"`
	Templates []string  `json:"templates,omitempty"`

	// Legacy is set for the two-speaker input shape; those events keep the
	// single-template output layout.
	Legacy bool `json:"-"`
}

// Handles returns the GitHub handle of every speaker in order.
func (e Event) Handles() []string {
	out := make([]string, len(e.Speakers))
	for i, s := range e.Speakers {
		out[i] = s.GitHub
	}
	return out
}
