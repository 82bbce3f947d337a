package schema

import (
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Action column keys.
const (
	EditAction   = "edit"
	DeleteAction = "delete"
)

func actions(singular string) []Column {
	return []Column{
		Btn(EditAction, "Edit").WithTooltip("Edit " + singular + " {{.Name}}"),
		Btn(DeleteAction, "Delete").WithTooltip("Delete " + singular + " {{.Name}}"),
	}
}

func id() Column { return Str("id").WithLabel("ID").Hide(true) }

func Cities(Capabilities) []Column {
	cols := []Column{
		id(),
		Ref("name", "/city/{{.ID}}").WithTooltip("{{.Name}}, {{or .AdminRegionName .CountryName}}"),
		Str("lat").WithLabel("Latitude"),
		Str("lon").WithLabel("Longitude"),
		Str("population"),
		Ref("countryName", "/countries/{{.CountryID}}/cities").WithLabel("Country").
			WithTooltip("All cities of {{.CountryName}}"),
		Ref("adminRegionName", "/adminregions/{{.AdminRegionID}}/cities").WithLabel("Admin Region").
			WithTooltip("All cities of {{.AdminRegionName}}"),
	}
	return append(cols, actions("city")...)
}

func Countries(Capabilities) []Column {
	cols := []Column{
		id(),
		Ref("name", "/country/{{.ID}}").WithTooltip("{{.Name}} ({{.ISO2}})"),
		Str("iso2").WithLabel("ISO 2"),
		Str("iso3").WithLabel("ISO 3"),
		Ref("totCities", "/countries/{{.ID}}/cities").WithLabel("Cities").
			WithTooltip("All cities of {{.Name}}"),
		Ref("totAdminRegions", "/countries/{{.ID}}/adminregions").WithLabel("Admin Regions").
			WithTooltip("All admin regions of {{.Name}}"),
	}
	return append(cols, actions("country")...)
}

func AdminRegions(Capabilities) []Column {
	cols := []Column{
		id(),
		Ref("name", "/adminregion/{{.ID}}").WithTooltip("{{.Name}}, {{.CountryName}}"),
		Str("code"),
		Ref("countryName", "/countries/{{.CountryID}}/adminregions").WithLabel("Country").
			WithTooltip("All admin regions of {{.CountryName}}"),
		Ref("totCities", "/adminregions/{{.ID}}/cities").WithLabel("Cities").
			WithTooltip("All cities of {{.Name}}"),
	}
	return append(cols, actions("admin region")...)
}

// Users hides e-mail addresses from anonymous sessions.
func Users(caps Capabilities) []Column {
	cols := []Column{
		id(),
		Ref("name", "/user/{{.ID}}").WithTooltip("{{.Name}} <{{.Email}}>"),
		Str("email").Hide(!caps.IsLoggedIn),
		Str("roles").WithTooltip(`{{join .Roles ", "}}`),
	}
	return append(cols, actions("user")...)
}

var descriptors = map[sdk.Entity]Descriptor{
	sdk.Cities:       Cities,
	sdk.Countries:    Countries,
	sdk.AdminRegions: AdminRegions,
	sdk.Users:        Users,
}

// For returns the descriptor of e.
func For(e sdk.Entity) (Descriptor, bool) {
	d, ok := descriptors[e]
	return d, ok
}
