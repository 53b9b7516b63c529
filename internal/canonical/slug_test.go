package canonical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"React Conf 2026!", "react-conf-2026"},
		{"  Go   Meetup  ", "go-meetup"},
		{"AI & Cloud -- Summit", "ai-cloud-summit"},
		{"snake_case_title", "snake_case_title"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			require.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_Stable(t *testing.T) {
	title := "DevFest: Cairo 2026 (Day #1)"
	first := Slugify(title)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Slugify(title))
	}
	require.Regexp(t, `^[a-z0-9_-]+$`, first)
}
