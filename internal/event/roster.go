package event

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var speakerFields = []string{"name", "lastname", "fullname", "title", "company", "github"}

// parseListCell splits a "a.svg | b.svg" cell, dropping blanks and "-".
func parseListCell(s string) []string {
	parts := strings.Split(s, "|")
	out := []string{}
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" && t != "-" {
			out = append(out, t)
		}
	}
	return out
}

// ParseRoster reads a CSV with one event per row. Columns are looked up by
// header name: title, subtitle, date, time, url, templates and
// speaker<N>_<field> for N starting at 1. Speakers whose cells are all
// empty are skipped.
func ParseRoster(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed roster: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("malformed roster: no header")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	slots := 0
	for {
		found := false
		for _, f := range speakerFields {
			if _, ok := cols["speaker"+strconv.Itoa(slots+1)+"_"+f]; ok {
				found = true
				break
			}
		}
		if !found {
			break
		}
		slots++
	}

	out := []Event{}
	for _, row := range rows[1:] {
		ev := Event{
			Title:     get(row, "title"),
			Subtitle:  get(row, "subtitle"),
			Date:      get(row, "date"),
			Time:      get(row, "time"),
			URL:       get(row, "url"),
			Templates: parseListCell(get(row, "templates")),
		}
		for i := 1; i <= slots; i++ {
			p := "speaker" + strconv.Itoa(i) + "_"
			s := Speaker{
				Name:     get(row, p+"name"),
				Lastname: get(row, p+"lastname"),
				Fullname: get(row, p+"fullname"),
				Title:    get(row, p+"title"),
				Company:  get(row, p+"company"),
				GitHub:   get(row, p+"github"),
			}
			if s == (Speaker{}) {
				continue
			}
			ev.Speakers = append(ev.Speakers, s)
		}
		if len(ev.Templates) == 0 {
			ev.Templates = []string{DefaultTemplate}
		}
		out = append(out, ev)
	}
	return out, nil
}

// LoadRoster reads the CSV roster at path.
func LoadRoster(path string) ([]Event, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	evs, err := ParseRoster(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return evs, nil
}
