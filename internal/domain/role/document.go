package role

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Document is the shape of an externally sourced role (import file, market
// catalog). Presence of the required fields is checked before a Role is built;
// `required` on a slice rejects a missing key but accepts an empty list.
type Document struct {
	ID               string            `json:"id" validate:"required"`
	Name             string            `json:"name" validate:"required"`
	DisplayName      string            `json:"displayName" validate:"required"`
	Description      string            `json:"description"`
	Avatar           string            `json:"avatar"`
	Category         string            `json:"category" validate:"required"`
	SystemPrompt     string            `json:"systemPrompt" validate:"required"`
	Personality      string            `json:"personality"`
	Scenario         string            `json:"scenario"`
	ExampleDialogues []ExampleDialogue `json:"exampleDialogues"`
	Expertise        []string          `json:"expertise" validate:"required"`
	Tags             []string          `json:"tags" validate:"required"`
	CharacterNote    string            `json:"characterNote"`
	Author           string            `json:"author"`
	Version          string            `json:"version"`
	CreatedAt        string            `json:"createdAt"`
	UpdatedAt        string            `json:"updatedAt"`
	Downloads        *int64            `json:"downloads"`
	Rating           *float64          `json:"rating"`
	IsCustom         bool              `json:"isCustom"`
	CreatorNotes     string            `json:"creatorNotes"`
	License          string            `json:"license"`
}

// Validate checks field presence and returns a readable message per missing field.
func (d Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s is %s", lowerFirst(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRole, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRole, err)
	}
	return nil
}

// Role converts a validated document. Unknown categories fall back to custom.
func (d Document) Role() Role {
	category, _ := ParseCategory(d.Category)
	created := parseTime(d.CreatedAt)
	updated := parseTime(d.UpdatedAt)
	if updated.Before(created) {
		updated = created
	}
	return Role{
		ID:               d.ID,
		Name:             d.Name,
		DisplayName:      d.DisplayName,
		Description:      d.Description,
		Avatar:           d.Avatar,
		Category:         category,
		SystemPrompt:     d.SystemPrompt,
		Personality:      d.Personality,
		Scenario:         d.Scenario,
		ExampleDialogues: d.ExampleDialogues,
		Expertise:        d.Expertise,
		Tags:             d.Tags,
		CharacterNote:    d.CharacterNote,
		Author:           d.Author,
		Version:          d.Version,
		CreatedAt:        created,
		UpdatedAt:        updated,
		Downloads:        d.Downloads,
		Rating:           d.Rating,
		IsCustom:         d.IsCustom,
		CreatorNotes:     d.CreatorNotes,
		License:          d.License,
	}
}

// DecodeDocument parses and validates one untrusted role.
func DecodeDocument(raw json.RawMessage) (Role, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return Role{}, fmt.Errorf("%w: %v", ErrInvalidRole, err)
	}
	if err := d.Validate(); err != nil {
		return Role{}, err
	}
	return d.Role(), nil
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime accepts full timestamps and the date-only strings market catalogs use.
// Unparseable input yields the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
