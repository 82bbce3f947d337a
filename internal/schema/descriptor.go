package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Capabilities are the session facts columns are gated on.
type Capabilities struct {
	IsLoggedIn      bool `json:"isLoggedIn"`
	IsAdministrator bool `json:"isAdministrator"`
}

// Descriptor returns the ordered columns of an entity for caps. It must be
// a pure function; tables are resolved again whenever caps change.
type Descriptor func(caps Capabilities) []Column

// Table is a descriptor resolved for one set of capabilities.
type Table struct {
	Columns []Column
	Caps    Capabilities
}

// Resolve evaluates d for caps.
func Resolve(d Descriptor, caps Capabilities) Table {
	return Table{Columns: d(caps), Caps: caps}
}

// Validate checks every column and rejects duplicate keys.
func (t Table) Validate() error {
	seen := map[string]bool{}
	var errs []error
	for _, c := range t.Columns {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[c.Key] {
			errs = append(errs, fmt.Errorf("%w: duplicate key %q", ErrInvalidColumn, c.Key))
		}
		seen[c.Key] = true
	}
	return errors.Join(errs...)
}

func (t Table) authorized(c Column) bool {
	return !c.AuthorizedOnly || t.Caps.IsAdministrator
}

// ModelColumns lists the keys read from row data.
func (t Table) ModelColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind != Button {
			out = append(out, c.Key)
		}
	}
	return out
}

// DisplayColumns lists the keys rendered as headers, in declared order.
// Hidden columns are skipped, and so are buttons the session may not use.
func (t Table) DisplayColumns() []string {
	var out []string
	for _, c := range t.Visible() {
		out = append(out, c.Key)
	}
	return out
}

// Visible returns the columns behind DisplayColumns.
func (t Table) Visible() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.Hidden {
			continue
		}
		if c.Kind == Button && !t.authorized(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Column looks a column up by key.
func (t Table) Column(key string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Clickable reports whether the link column key opens its target. A link
// the session is not authorized for is rendered as plain text.
func (t Table) Clickable(key string) bool {
	c, ok := t.Column(key)
	return ok && c.Kind == Link && c.AuthorizedOnly && t.Caps.IsAdministrator
}

// Sortable reports whether key may be used as sort column.
func (t Table) Sortable(key string) bool {
	c, ok := t.Column(key)
	return ok && c.Sortable && c.Kind != Button
}

// Format renders a cell value as text.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []string:
		return strings.Join(x, ", ")
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
