package sdk

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// Entity names a collection of the API, in the plural form used by its
// endpoints.
type Entity string

const (
	Cities       Entity = "Cities"
	Countries    Entity = "Countries"
	AdminRegions Entity = "AdminRegions"
	Users        Entity = "Users"
)

// Entities lists every collection in menu order.
var Entities = []Entity{Cities, Countries, AdminRegions, Users}

// Endpoint is the collection root, e.g. /api/Cities.
func (e Entity) Endpoint() string { return "/api/" + string(e) }

// Singular is the record name, e.g. City.
func (e Entity) Singular() string { return inflection.Singular(string(e)) }

// DupePath is the duplicate check endpoint, e.g. /api/Cities/IsDupeCity.
func (e Entity) DupePath() string { return e.Endpoint() + "/IsDupe" + e.Singular() }

// Route is the front end route of the list view, e.g. /cities.
func (e Entity) Route() string { return "/" + strings.ToLower(string(e)) }

// ParseEntity accepts the plural or singular name in any case.
func ParseEntity(s string) (Entity, error) {
	s = strings.TrimSpace(s)
	for _, e := range Entities {
		if strings.EqualFold(s, string(e)) || strings.EqualFold(s, e.Singular()) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q", s)
}
