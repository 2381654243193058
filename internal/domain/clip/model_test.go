package clip

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixTime(t *testing.T) {
	// 0 in the source epoch is 2001-01-01 00:00:00 UTC
	got := UnixTime(0).UTC()
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got = UnixTime(86400).UTC()
	assert.Equal(t, time.Date(2001, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestClip_Title(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "short content untouched",
			content: "hello",
			want:    "hello",
		},
		{
			name:    "exactly 120 runes untouched",
			content: strings.Repeat("x", 120),
			want:    strings.Repeat("x", 120),
		},
		{
			name:    "longer content truncated to 120",
			content: strings.Repeat("x", 121),
			want:    strings.Repeat("x", 120),
		},
		{
			name:    "truncation counts runes not bytes",
			content: strings.Repeat("я", 130),
			want:    strings.Repeat("я", 120),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Clip{Content: tt.content}
			assert.Equal(t, tt.want, c.Title())
		})
	}
}

func TestClip_Subtitle(t *testing.T) {
	const ts = int64(712424025)
	stamp := time.Unix(ts+EpochOffset, 0).Format("2006-01-02 3:04:05 PM")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "single line omits line count",
			content: "hello",
			want:    fmt.Sprintf("5 characters, copied at %s", stamp),
		},
		{
			name:    "multiline includes line count",
			content: "a\nb\nc",
			want:    fmt.Sprintf("3 lines, 5 characters, copied at %s", stamp),
		},
		{
			name:    "characters are runes",
			content: "привет",
			want:    fmt.Sprintf("6 characters, copied at %s", stamp),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Clip{Timestamp: ts, Content: tt.content}
			assert.Equal(t, tt.want, c.Subtitle())
		})
	}
}

func TestNewItemList(t *testing.T) {
	clips := []Clip{
		{Timestamp: 10, Content: "first"},
		{Timestamp: 5, Content: "second"},
	}

	list := NewItemList(clips)

	require.Len(t, list.Items, 2)
	assert.True(t, list.SkipKnowledge)
	assert.True(t, list.Items[0].Valid)
	assert.Equal(t, int64(10), list.Items[0].UID)
	assert.Equal(t, "first", list.Items[0].Title)
	assert.Equal(t, "first", list.Items[0].Arg)
}

func TestNewItemList_Empty(t *testing.T) {
	list := NewItemList(nil)

	assert.True(t, list.SkipKnowledge)
	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
}
