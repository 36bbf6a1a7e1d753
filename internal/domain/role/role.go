package role

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrAbandoned is returned when an interactive creation is missing a required
	// answer. Nothing is written; callers treat it as a silent cancel.
	ErrAbandoned = errors.New("role: creation abandoned")

	ErrInvalidRole = errors.New("role: invalid role document")
)

const (
	DefaultAuthor  = "Custom"
	DefaultVersion = "1.0.0"
)

type ExampleDialogue struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Role is a named persona template. Optional text fields are omitted when empty.
type Role struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	DisplayName      string            `json:"displayName"`
	Description      string            `json:"description"`
	Avatar           string            `json:"avatar,omitempty"`
	Category         Category          `json:"category"`
	SystemPrompt     string            `json:"systemPrompt"`
	Personality      string            `json:"personality,omitempty"`
	Scenario         string            `json:"scenario,omitempty"`
	ExampleDialogues []ExampleDialogue `json:"exampleDialogues,omitempty"`
	Expertise        []string          `json:"expertise"`
	Tags             []string          `json:"tags"`
	CharacterNote    string            `json:"characterNote,omitempty"`
	Author           string            `json:"author"`
	Version          string            `json:"version"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	Downloads        *int64            `json:"downloads,omitempty"`
	Rating           *float64          `json:"rating,omitempty"`
	IsCustom         bool              `json:"isCustom"`
	CreatorNotes     string            `json:"creatorNotes,omitempty"`
	License          string            `json:"license,omitempty"`
}

// Draft carries the answers collected by an interactive create flow.
type Draft struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"displayName"`
	Description   string   `json:"description"`
	Category      Category `json:"category"`
	SystemPrompt  string   `json:"systemPrompt"`
	Personality   string   `json:"personality"`
	Scenario      string   `json:"scenario"`
	CharacterNote string   `json:"characterNote"`
	Expertise     []string `json:"expertise"`
	Tags          []string `json:"tags"`
}

// Complete reports whether every answer an interactive flow insists on is present.
func (d Draft) Complete() bool {
	return strings.TrimSpace(d.Name) != "" &&
		strings.TrimSpace(d.DisplayName) != "" &&
		strings.TrimSpace(d.SystemPrompt) != ""
}

// New builds a custom role from a draft. The id is supplied by the repository.
func New(id string, d Draft, now time.Time) Role {
	category, _ := ParseCategory(string(d.Category))
	return Role{
		ID:            id,
		Name:          strings.TrimSpace(d.Name),
		DisplayName:   strings.TrimSpace(d.DisplayName),
		Description:   strings.TrimSpace(d.Description),
		Category:      category,
		SystemPrompt:  d.SystemPrompt,
		Personality:   d.Personality,
		Scenario:      d.Scenario,
		CharacterNote: d.CharacterNote,
		Expertise:     cleanList(d.Expertise),
		Tags:          cleanList(d.Tags),
		Author:        DefaultAuthor,
		Version:       DefaultVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsCustom:      true,
	}
}

// SplitList splits a comma-separated answer ("React, TypeScript") into trimmed,
// non-empty entries.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Touch bumps UpdatedAt, never moving it before CreatedAt.
func (r *Role) Touch(now time.Time) {
	if now.Before(r.CreatedAt) {
		now = r.CreatedAt
	}
	r.UpdatedAt = now
}

// normalizeSets replaces nil expertise and tags with empty sets. An empty set
// is a legal value and must survive export as [] rather than null.
func (r *Role) normalizeSets() {
	if r.Expertise == nil {
		r.Expertise = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// Valid reports whether the role satisfies the invariants a stored role must hold.
func (r Role) Valid() bool {
	return r.ID != "" && strings.TrimSpace(r.SystemPrompt) != ""
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices.
func (r Role) Clone() Role {
	out := r
	if r.ExampleDialogues != nil {
		out.ExampleDialogues = make([]ExampleDialogue, len(r.ExampleDialogues))
		copy(out.ExampleDialogues, r.ExampleDialogues)
	}
	out.Expertise = cloneStrings(r.Expertise)
	out.Tags = cloneStrings(r.Tags)
	if r.Downloads != nil {
		d := *r.Downloads
		out.Downloads = &d
	}
	if r.Rating != nil {
		v := *r.Rating
		out.Rating = &v
	}
	return out
}

// cloneStrings copies in; nil becomes an empty set so it encodes as [].
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// SearchText is the lower-cased haystack the catalog search matches against.
func (r Role) SearchText() string {
	parts := make([]string, 0, 3+len(r.Expertise)+len(r.Tags))
	parts = append(parts, r.DisplayName, r.Description, r.Name)
	parts = append(parts, r.Expertise...)
	parts = append(parts, r.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}
