package ai

// Model is a generation model offered for selection.
type Model struct {
	Name string
	ID   string
}

// DefaultModel is selected for sessions that have not chosen a model.
const DefaultModel = "anthropic/claude-3.5-sonnet"

// AvailableModels lists the models offered for display, default first.
// Identifiers outside this list are still passed through to the backend.
var AvailableModels = []Model{
	{Name: "Claude 3.5 Sonnet", ID: DefaultModel},
	{Name: "Gemini Flash 1.5", ID: "google/gemini-1.5-flash"},
	{Name: "GPT-4o Mini", ID: "openai/gpt-4o-mini"},
}

// ModelName returns the display name for id, or id itself when it is not
// in AvailableModels.
func ModelName(id string) string {
	for _, m := range AvailableModels {
		if m.ID == id {
			return m.Name
		}
	}
	return id
}

// IsKnownModel reports whether id is in AvailableModels.
func IsKnownModel(id string) bool {
	for _, m := range AvailableModels {
		if m.ID == id {
			return true
		}
	}
	return false
}
