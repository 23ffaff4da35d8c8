package schema

// ContentResponse is a model reply. Providers return a single choice.
type ContentResponse struct {
	Choices []*ContentChoice
}

type ContentChoice struct {
	Content        string
	StopReason     string
	GenerationInfo map[string]any
}
