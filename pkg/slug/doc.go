// Package slug turns arbitrary text into ASCII identifiers safe for URLs
// and file names.
//
// Latin diacritics are folded to their base letters, every other run of
// non-alphanumeric characters collapses to a single separator:
//
//	slug.Make("Café & Résumé")                 // "cafe-resume"
//	slug.Make("Große Straße")                  // "grosse-strasse"
//	slug.Make("Spring Retreat", slug.Separator("_")) // "spring_retreat"
//	slug.Make("contact form", slug.MaxLength(7))     // "contact"
package slug
