package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the
	// embedded default or an error for unknown names.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptRiskAnalysis asks for the legal risks in one chunk.
	// The prompt template expects a %s placeholder for the chunk text.
	PromptRiskAnalysis = "risk_analysis"

	// PromptRecommendation asks for mitigation advice for one chunk.
	// The prompt template expects a %s placeholder for the chunk text.
	PromptRecommendation = "recommendation"

	// PromptQueryAnswer answers the user's question from retrieved context.
	// The prompt template expects %s (context) and %s (question) placeholders.
	PromptQueryAnswer = "query_answer"
)

// defaultPrompts are the built-in templates used when no PromptStore is
// configured or a user file is missing.
var defaultPrompts = map[string]string{
	PromptRiskAnalysis: "Analyze the following text for legal risks:\n\n%s",

	PromptRecommendation: "Provide recommendations to mitigate identified risks:\n\n%s",

	PromptQueryAnswer: `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`,
}

// DefaultPrompt returns the built-in template for a well-known prompt name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// PromptNames returns every well-known prompt name.
func PromptNames() []string {
	return []string{PromptRiskAnalysis, PromptRecommendation, PromptQueryAnswer}
}
