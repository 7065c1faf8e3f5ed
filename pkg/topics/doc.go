// Package topics builds the push-notification topic identifiers a client
// subscribes to.
//
// Topics follow a fixed grammar:
//
//	eruka_lang-<lang>_aud<audience>
//
// where <audience> is one of "all_users", "-country-<CC>" or "-version-<V>".
// Values are concatenated verbatim; no normalization or validation happens
// here. Callers are expected to supply sane locale and version strings.
//
// Example usage:
//
//	gen := topics.NewGenerator()
//	desired := gen.Compute("en", "US", "2.1")
//	// [eruka_lang-en_audall_users eruka_lang-en_aud-country-US eruka_lang-en_aud-version-2.1]
//
//	// Compare with what was persisted last time
//	if !topics.NewSet(desired...).Equal(topics.NewSet(previous...)) {
//		removed := topics.NewSet(previous...).Difference(topics.NewSet(desired...))
//		...
//	}
package topics
