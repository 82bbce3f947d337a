// Package schema describes, per entity, the columns a table renders and
// which of them depend on the session's capabilities.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// Kind is the render hint of a column.
type Kind string

const (
	String  Kind = "string"
	Boolean Kind = "boolean"
	Button  Kind = "button"
	Link    Kind = "link"
)

// Column describes one table column. Key is a record field for data
// columns and an action id for buttons.
type Column struct {
	Key             string `json:"key" yaml:"key"`
	Label           string `json:"label" yaml:"label"`
	Kind            Kind   `json:"kind" yaml:"kind"`
	Hidden          bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Sortable        bool   `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	AuthorizedOnly  bool   `json:"authorizedOnly,omitempty" yaml:"authorizedOnly,omitempty"`
	TooltipTemplate string `json:"tooltipTemplate,omitempty" yaml:"tooltipTemplate,omitempty"`
	// Href is the route a link column opens, as a template over the row.
	Href string `json:"href,omitempty" yaml:"href,omitempty"`
}

// ErrInvalidColumn is wrapped by Validate.
var ErrInvalidColumn = errors.New("invalid column")

// Validate checks the column invariants.
func (c Column) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidColumn)
	}
	switch c.Kind {
	case String, Boolean, Link:
	case Button:
		if c.Sortable {
			return fmt.Errorf("%w: button %q cannot be sortable", ErrInvalidColumn, c.Key)
		}
	default:
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidColumn, c.Key, c.Kind)
	}
	for _, tpl := range []string{c.TooltipTemplate, c.Href} {
		if tpl == "" {
			continue
		}
		if _, err := parse(c.Key, tpl); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidColumn, c.Key, err)
		}
	}
	return nil
}

// Title returns Label or a label derived from Key, e.g. "Country Name".
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return DefaultLabel(c.Key)
}

// DefaultLabel turns a camelCase key into words with leading capitals.
func DefaultLabel(key string) string {
	words := strings.Fields(strcase.ToDelimited(key, ' '))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Str, Bool, Btn and Ref build columns with the usual defaults.
func Str(key string) Column { return Column{Key: key, Kind: String, Sortable: true} }

func Bool(key string) Column { return Column{Key: key, Kind: Boolean, Sortable: true} }

func Btn(key, label string) Column {
	return Column{Key: key, Label: label, Kind: Button, AuthorizedOnly: true}
}

func Ref(key, href string) Column {
	return Column{Key: key, Kind: Link, Sortable: true, AuthorizedOnly: true, Href: href}
}

// WithTooltip returns a copy with tpl as tooltip template.
func (c Column) WithTooltip(tpl string) Column {
	c.TooltipTemplate = tpl
	return c
}

// WithLabel returns a copy with an explicit label.
func (c Column) WithLabel(label string) Column {
	c.Label = label
	return c
}

// Hide returns a copy that is hidden when hidden is true.
func (c Column) Hide(hidden bool) Column {
	c.Hidden = hidden
	return c
}
