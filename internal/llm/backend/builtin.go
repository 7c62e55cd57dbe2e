package backend

// Built-in provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderSimulator = "simulator"
)

func init() {
	Register(ProviderOpenAI, newOpenAI)
	Register(ProviderAnthropic, newAnthropic)
	Register(ProviderGemini, newGemini)
	Register(ProviderOllama, newOllama)
	Register(ProviderSimulator, newSimulator)
}
