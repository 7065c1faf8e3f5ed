package topics

// Topic grammar constants.
const (
	// BaseTopic prefixes every generated topic.
	BaseTopic = "eruka_"

	// AudienceSeparator sits between the language part and the audience.
	AudienceSeparator = "_aud"

	// AllUsersAudience targets every user of a language.
	AllUsersAudience = "all_users"

	// DebugTopic is subscribed in testing mode. It is never persisted.
	DebugTopic = "testing-debug"
)

// Topic is an opaque topic identifier. Two topics are the same topic when
// their strings are equal.
type Topic string

// String returns the topic identifier.
func (t Topic) String() string {
	return string(t)
}

// Generator computes the topic list for a client. It holds no state.
type Generator struct{}

// NewGenerator creates a topic generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Compute returns the three topics for the given language, country and app
// version, always in the order: all users, country, version.
func (g *Generator) Compute(language, country, appVersion string) []Topic {
	return []Topic{
		build(language, AllUsersAudience),
		build(language, countryAudience(country)),
		build(language, versionAudience(appVersion)),
	}
}

func countryAudience(country string) string {
	return "-country-" + country
}

func versionAudience(version string) string {
	return "-version-" + version
}

func build(language, audience string) Topic {
	return Topic(BaseTopic + "lang-" + language + AudienceSeparator + audience)
}

// Strings converts topics to plain strings, preserving order.
func Strings(list []Topic) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = string(t)
	}
	return out
}
