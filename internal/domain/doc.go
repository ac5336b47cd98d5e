// Package domain models disease case counts reported per U.S. state and year.
//
// # Data Source
//
// Case datasets are spreadsheets exported by public health surveillance
// programs (one workbook per disease, e.g. HIV_data.xlsx, TB_data.xlsx). Each
// row is one observation; the service also accepts the same table as CSV or as
// a JSON array of objects. State boundaries come from a GeoJSON
// FeatureCollection whose feature property NAME holds the full state name.
//
// # Source Data Conventions
//
// Required columns:
//
//	State  full name, postal code or press abbreviation ("Texas", "TX", "Calif.")
//	Year   integer-like, e.g. 2019, "2019", "2019.0"
//	Cases  numeric-like, e.g. 200, "1,250", "" (blank means zero)
//
// Column lookup tries the exact header first ("State", "Year", "Cases") and
// falls back to a case-insensitive match, so "STATE" or "cases" also work.
// Any other column is ignored by aggregation but kept for the raw-data table.
//
// Malformed rows:
//
//	A row whose year is missing, non-integral, zero or negative is excluded
//	from aggregation. A row with an empty state is excluded as well. Both are
//	counted in [NormalizeResult.Skipped] and never fail the load.
//
// Duplicate rows:
//
//	Several rows with the same (state, year) are summed. National totals are
//	built on this, so a later row never overwrites an earlier one.
//
// # State Names
//
// Names are canonicalized through a fixed alias table (see [CanonicalState])
// so that data rows join against GeoJSON NAME properties. Canonical names map
// to themselves; applying the table twice equals applying it once.
//
// # Color Ramp
//
// Values are mapped onto an ordered list of color stops (see [Scale]). The
// ratio denominator is floored at 1 so identical minimum and maximum values
// produce a single flat color. States with no value at all get the neutral
// no-data color.
package domain
