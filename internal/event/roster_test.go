package event

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roster = `title,date,time,url,templates,speaker1_name,speaker1_github,speaker2_name,speaker2_company,speaker3_name
Go Night,12/05/2024,18:30,https://example.com/1,a.svg | b.svg,Ada,ada,Alan,Bletchley,
Rust Night,13/05/2024,19:00,,,Grace,,,,
`

func TestParseRoster(t *testing.T) {
	evs, err := ParseRoster(strings.NewReader(roster))
	require.NoError(t, err)
	require.Len(t, evs, 2)

	assert.Equal(t, "Go Night", evs[0].Title)
	assert.Equal(t, []string{"a.svg", "b.svg"}, evs[0].Templates)
	assert.Equal(t, []Speaker{
		{Name: "Ada", GitHub: "ada"},
		{Name: "Alan", Company: "Bletchley"},
	}, evs[0].Speakers)
	assert.False(t, evs[0].Legacy)

	assert.Equal(t, []string{DefaultTemplate}, evs[1].Templates)
	assert.Equal(t, []Speaker{{Name: "Grace"}}, evs[1].Speakers)
	assert.Empty(t, evs[1].URL)
}

func TestParseRosterHeaderOnly(t *testing.T) {
	evs, err := ParseRoster(strings.NewReader("title,date\n"))
	require.NoError(t, err)
	assert.Empty(t, evs)

	_, err = ParseRoster(strings.NewReader(""))
	assert.ErrorContains(t, err, "no header")
}

func TestLoadRosterWrapsPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "r.csv")
	require.NoError(t, os.WriteFile(p, []byte("title\n\"unterminated\n"), 0o644))
	_, err := LoadRoster(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), p)
	assert.Contains(t, err.Error(), "malformed roster")
}
