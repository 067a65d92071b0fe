package view

import (
	"fmt"
	"strings"
)

// DefaultTopN is the number of processes shown when ShowAll is disabled.
const DefaultTopN = 10

// SortKey selects the column used to order the rendered list.
type SortKey int

const (
	SortCPU SortKey = iota
	SortMemory
	SortPID
	SortName
)

func (k SortKey) String() string {
	switch k {
	case SortCPU:
		return "cpu"
	case SortMemory:
		return "memory"
	case SortPID:
		return "pid"
	case SortName:
		return "name"
	default:
		return "unknown"
	}
}

// DefaultDescending reports the direction a key starts in when first
// selected: resource columns put the heaviest process first, identity columns
// read top to bottom.
func (k SortKey) DefaultDescending() bool {
	return k == SortCPU || k == SortMemory
}

// ParseSortKey accepts the names produced by String plus a few short forms.
func ParseSortKey(raw string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cpu", "c":
		return SortCPU, nil
	case "memory", "mem", "m", "rss":
		return SortMemory, nil
	case "pid", "p":
		return SortPID, nil
	case "name", "n":
		return SortName, nil
	default:
		return 0, fmt.Errorf("unknown sort key %q", raw)
	}
}

// MarshalText renders the key for JSON and YAML encoders.
func (k SortKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a key produced by MarshalText.
func (k *SortKey) UnmarshalText(text []byte) error {
	parsed, err := ParseSortKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Params are the operator controlled view settings. They are independent of
// snapshot freshness and survive refreshes.
type Params struct {
	SortKey    SortKey `json:"sort"`
	Descending bool    `json:"descending"`
	Search     string  `json:"search"`
	ShowAll    bool    `json:"show_all"`
	TopN       int     `json:"top_n,omitempty"`
}

// DefaultParams returns the initial view: top processes by CPU, heaviest first.
func DefaultParams() Params {
	return Params{
		SortKey:    SortCPU,
		Descending: SortCPU.DefaultDescending(),
		TopN:       DefaultTopN,
	}
}

// WithSortKey applies a column selection. Selecting the active key flips the
// direction; selecting a different key switches to it in its default direction.
func (p Params) WithSortKey(key SortKey) Params {
	if p.SortKey == key {
		p.Descending = !p.Descending
		return p
	}
	p.SortKey = key
	p.Descending = key.DefaultDescending()
	return p
}

func (p Params) limit() int {
	if p.TopN <= 0 {
		return DefaultTopN
	}
	return p.TopN
}
