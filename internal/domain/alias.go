package domain

import "strings"

// StateNames lists the canonical names used as join keys against the
// boundary GeoJSON: the 50 states, the District of Columbia and Puerto Rico.
var StateNames = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California",
	"Colorado", "Connecticut", "Delaware", "District of Columbia", "Florida",
	"Georgia", "Hawaii", "Idaho", "Illinois", "Indiana",
	"Iowa", "Kansas", "Kentucky", "Louisiana", "Maine",
	"Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire",
	"New Jersey", "New Mexico", "New York", "North Carolina", "North Dakota",
	"Ohio", "Oklahoma", "Oregon", "Pennsylvania", "Puerto Rico",
	"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas",
	"Utah", "Vermont", "Virginia", "Washington", "West Virginia",
	"Wisconsin", "Wyoming",
}

// stateAliases maps lowercased alternate spellings to canonical names:
// USPS codes, AP style abbreviations and common DC variants.
var stateAliases = map[string]string{
	"al": "Alabama", "ala.": "Alabama",
	"ak": "Alaska",
	"az": "Arizona", "ariz.": "Arizona",
	"ar": "Arkansas", "ark.": "Arkansas",
	"ca": "California", "calif.": "California", "cal.": "California",
	"co": "Colorado", "colo.": "Colorado",
	"ct": "Connecticut", "conn.": "Connecticut",
	"de": "Delaware", "del.": "Delaware",
	"dc": "District of Columbia", "d.c.": "District of Columbia",
	"washington dc": "District of Columbia", "washington d.c.": "District of Columbia",
	"washington, dc": "District of Columbia", "washington, d.c.": "District of Columbia",
	"fl": "Florida", "fla.": "Florida",
	"ga": "Georgia", "ga.": "Georgia",
	"hi": "Hawaii",
	"id": "Idaho",
	"il": "Illinois", "ill.": "Illinois",
	"in": "Indiana", "ind.": "Indiana",
	"ia": "Iowa",
	"ks": "Kansas", "kan.": "Kansas", "kans.": "Kansas",
	"ky": "Kentucky", "ky.": "Kentucky",
	"la": "Louisiana", "la.": "Louisiana",
	"me": "Maine",
	"md": "Maryland", "md.": "Maryland",
	"ma": "Massachusetts", "mass.": "Massachusetts",
	"mi": "Michigan", "mich.": "Michigan",
	"mn": "Minnesota", "minn.": "Minnesota",
	"ms": "Mississippi", "miss.": "Mississippi",
	"mo": "Missouri", "mo.": "Missouri",
	"mt": "Montana", "mont.": "Montana",
	"ne": "Nebraska", "neb.": "Nebraska", "nebr.": "Nebraska",
	"nv": "Nevada", "nev.": "Nevada",
	"nh": "New Hampshire", "n.h.": "New Hampshire",
	"nj": "New Jersey", "n.j.": "New Jersey",
	"nm": "New Mexico", "n.m.": "New Mexico", "n.mex.": "New Mexico",
	"ny": "New York", "n.y.": "New York",
	"nc": "North Carolina", "n.c.": "North Carolina",
	"nd": "North Dakota", "n.d.": "North Dakota", "n.dak.": "North Dakota",
	"oh": "Ohio",
	"ok": "Oklahoma", "okla.": "Oklahoma",
	"or": "Oregon", "ore.": "Oregon", "oreg.": "Oregon",
	"pa": "Pennsylvania", "pa.": "Pennsylvania", "penn.": "Pennsylvania",
	"pr": "Puerto Rico", "p.r.": "Puerto Rico",
	"ri": "Rhode Island", "r.i.": "Rhode Island",
	"sc": "South Carolina", "s.c.": "South Carolina",
	"sd": "South Dakota", "s.d.": "South Dakota", "s.dak.": "South Dakota",
	"tn": "Tennessee", "tenn.": "Tennessee",
	"tx": "Texas", "tex.": "Texas",
	"ut": "Utah",
	"vt": "Vermont", "vt.": "Vermont",
	"va": "Virginia", "va.": "Virginia",
	"wa": "Washington", "wash.": "Washington",
	"wv": "West Virginia", "w.va.": "West Virginia", "w. va.": "West Virginia",
	"wi": "Wisconsin", "wis.": "Wisconsin", "wisc.": "Wisconsin",
	"wy": "Wyoming", "wyo.": "Wyoming",
}

func init() {
	// Canonical names resolve to themselves regardless of case.
	for _, name := range StateNames {
		stateAliases[strings.ToLower(name)] = name
	}
}

// CanonicalState trims name and resolves it through the alias table. Names
// without an entry are returned trimmed but otherwise unchanged.
func CanonicalState(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if canonical, ok := stateAliases[key]; ok {
		return canonical
	}
	return name
}

// IsKnownState reports whether name is one of the canonical StateNames.
func IsKnownState(name string) bool {
	canonical, ok := stateAliases[strings.ToLower(name)]
	return ok && canonical == name
}
