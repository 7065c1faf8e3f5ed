// Package locale derives topic generator inputs from the process environment.
package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/rmacdonaldsmith/cnotify-go/internal/coordinator"
)

// Fallbacks used when the environment does not say.
const (
	FallbackLanguage   = "en"
	FallbackCountry    = "??"
	FallbackAppVersion = "0.0"
)

// envPrecedence follows POSIX: LC_ALL overrides LC_MESSAGES overrides LANG.
var envPrecedence = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Overrides are explicitly configured values. Empty fields are detected.
type Overrides struct {
	Language   string
	Country    string
	AppVersion string
}

// Detect returns the language and region codes from the environment read
// through lookup. Missing parts come back empty.
func Detect(lookup func(string) string) (lang, region string) {
	for _, key := range envPrecedence {
		value := lookup(key)
		if value == "" {
			continue
		}
		return parse(value)
	}
	return "", ""
}

// Resolve merges overrides with detection and applies fallbacks.
func Resolve(o Overrides, lookup func(string) string) coordinator.Locale {
	if lookup == nil {
		lookup = os.Getenv
	}
	lang, region := Detect(lookup)

	result := coordinator.Locale{
		Language:   firstNonEmpty(o.Language, lang, FallbackLanguage),
		Country:    firstNonEmpty(o.Country, region, FallbackCountry),
		AppVersion: firstNonEmpty(o.AppVersion, FallbackAppVersion),
	}
	return result
}

// parse turns a POSIX locale such as "pt_BR.UTF-8@euro" into ("pt", "BR").
func parse(value string) (string, string) {
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	if value == "" || value == "C" || value == "POSIX" {
		return "", ""
	}

	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return "", ""
	}

	var lang, region string
	if base, conf := tag.Base(); conf != language.No && base.String() != "und" {
		lang = base.String()
	}
	// only an explicit region counts; x/text guesses one otherwise
	if r, conf := tag.Region(); conf == language.Exact {
		region = r.String()
	}
	return lang, region
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
