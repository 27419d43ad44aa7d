package models

import "strings"

// Records written before per-record ids existed are addressed by a
// synthetic ref built from their date (and blood type, for requests).
const legacyRefPrefix = "legacy:"

// LegacyRequestRef addresses an id-less request by (date, blood type).
func LegacyRequestRef(date, bloodType string) string {
	return legacyRefPrefix + date + ":" + bloodType
}

// LegacyDonationRef addresses an id-less donation by date.
func LegacyDonationRef(date string) string {
	return legacyRefPrefix + date
}

// ParseRequestRef splits a request ref. For a plain id it returns
// (id, "", "", false); for a legacy ref ("", date, bloodType, true).
// Dates may be RFC 3339 and contain ':', blood types never do.
func ParseRequestRef(ref string) (id, date, bloodType string, legacy bool) {
	rest, ok := strings.CutPrefix(ref, legacyRefPrefix)
	if !ok {
		return ref, "", "", false
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		return "", rest[:i], rest[i+1:], true
	}
	return "", rest, "", true
}

// ParseDonationRef splits a donation ref. The legacy form carries only the
// date, kept whole.
func ParseDonationRef(ref string) (id, date string, legacy bool) {
	rest, ok := strings.CutPrefix(ref, legacyRefPrefix)
	if !ok {
		return ref, "", false
	}
	return "", rest, true
}
