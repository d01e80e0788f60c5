package api

import "time"

// Tab is one open document in the display surface.
type Tab struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Content  string    `json:"content,omitempty"`
	Hash     string    `json:"hash"`
	LoadedAt time.Time `json:"loaded_at"`
}

// TabList is the session snapshot handed to the display surface.
type TabList struct {
	Tabs   []Tab  `json:"tabs"`
	Active string `json:"active,omitempty"`
}

// RecentFile is a history row for a previously opened document.
type RecentFile struct {
	Path      string    `json:"path" db:"path"`
	OpenedAt  time.Time `json:"opened_at" db:"opened_at"`
	OpenCount int64     `json:"open_count" db:"open_count"`
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle flips between light and dark; unknown values become dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Event names emitted to the display surface.
const (
	EventOpenFile    = "cli-open-file"
	EventFileChanged = "file-changed"
)

// FileChanged is the payload of EventFileChanged.
type FileChanged struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Hash string `json:"hash"`
}
