package event

import "strings"

// FilterOptions narrows which events and templates of a batch are
// rendered. Zero values match everything.
type FilterOptions struct {
	Dates     []string
	Templates []string
	// FreeWords must all appear in the title, subtitle or a speaker name.
	FreeWords string
}

func (o FilterOptions) IsZero() bool {
	return len(o.Dates) == 0 && len(o.Templates) == 0 && strings.TrimSpace(o.FreeWords) == ""
}

// Match reports whether ev is selected. Template narrowing happens in
// Filter.
func (o FilterOptions) Match(ev Event) bool {
	if len(o.Dates) > 0 && !contains(o.Dates, ev.Date) {
		return false
	}
	for _, k := range strings.Fields(o.FreeWords) {
		k = strings.ToLower(k)
		hay := []string{ev.Title, ev.Subtitle}
		for _, s := range ev.Speakers {
			hay = append(hay, s.DisplayName(), s.GitHub)
		}
		if !containsFold(hay, k) {
			return false
		}
	}
	return true
}

// Filter returns the selected events with their template lists narrowed to
// opt.Templates. Events left without templates are dropped.
func Filter(evs []Event, opt FilterOptions) []Event {
	var out []Event
	for _, ev := range evs {
		if !opt.Match(ev) {
			continue
		}
		if len(opt.Templates) > 0 {
			var keep []string
			for _, t := range ev.Templates {
				if contains(opt.Templates, t) {
					keep = append(keep, t)
				}
			}
			if len(keep) == 0 {
				continue
			}
			ev.Templates = keep
		}
		out = append(out, ev)
	}
	return out
}

func contains(hay []string, s string) bool {
	for _, h := range hay {
		if h == s {
			return true
		}
	}
	return false
}

func containsFold(hay []string, needle string) bool {
	for _, h := range hay {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
