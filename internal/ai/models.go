package ai

// ProviderConfig holds the configuration needed to create an AI provider.
type ProviderConfig struct {
	Provider       string // "anthropic" | "openai"
	APIKey         string
	Model          string
	TargetLanguage string
}

// Translation is the result of translating and summarizing one article.
// Abstract and Summary are empty when the source abstract was too short to
// work with.
type Translation struct {
	Title    string
	Abstract string
	Summary  string
}
