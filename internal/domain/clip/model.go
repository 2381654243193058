package clip

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// EpochOffset converts the source application's clock values to Unix time.
// The source stores seconds since 2001-01-01 UTC, not the Unix epoch.
const EpochOffset int64 = 978307200

// Table is the record table name, identical in source and archive stores.
const Table = "clipboard"

const titleLimit = 120

// Clip is one clipboard entry. The stored schema may carry additional
// opaque columns; these three are the only ones with defined semantics.
type Clip struct {
	Timestamp int64  `json:"ts"`
	Content   string `json:"item"`
	SourceApp string `json:"app,omitempty"`
}

// Time converts the source-epoch timestamp to local wall-clock time.
func (c Clip) Time() time.Time {
	return UnixTime(c.Timestamp)
}

// UnixTime converts a source-epoch timestamp to local wall-clock time.
func UnixTime(ts int64) time.Time {
	return time.Unix(ts+EpochOffset, 0)
}

// Title returns the content truncated to 120 runes for list display.
func (c Clip) Title() string {
	runes := []rune(c.Content)
	if len(runes) <= titleLimit {
		return c.Content
	}
	return string(runes[:titleLimit])
}

// Subtitle describes the clip the way the launcher integration shows it:
// optional line count, character count, and local copy time.
func (c Clip) Subtitle() string {
	var b strings.Builder
	if n := strings.Count(c.Content, "\n"); n > 0 {
		fmt.Fprintf(&b, "%d lines, ", n+1)
	}
	fmt.Fprintf(&b, "%d characters, copied at %s",
		utf8.RuneCountInString(c.Content),
		c.Time().Format("2006-01-02 3:04:05 PM"),
	)
	return b.String()
}

// Item is the launcher result entry. Field order is part of the contract.
type Item struct {
	Valid    bool   `json:"valid"`
	UID      int64  `json:"uuid"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Arg      string `json:"arg"`
}

// ItemList is the launcher response envelope.
type ItemList struct {
	SkipKnowledge bool   `json:"skipknowledge"`
	Items         []Item `json:"items"`
}

// NewItem projects a clip into a launcher result entry. The timestamp
// stands in for a unique key; the source store has no true UUID.
func NewItem(c Clip) Item {
	return Item{
		Valid:    true,
		UID:      c.Timestamp,
		Title:    c.Title(),
		Subtitle: c.Subtitle(),
		Arg:      c.Content,
	}
}

// NewItemList wraps clips into the launcher envelope. SkipKnowledge keeps
// the launcher from reordering results by its own usage statistics.
func NewItemList(clips []Clip) ItemList {
	items := make([]Item, 0, len(clips))
	for _, c := range clips {
		items = append(items, NewItem(c))
	}
	return ItemList{SkipKnowledge: true, Items: items}
}
