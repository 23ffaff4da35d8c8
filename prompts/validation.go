package prompts

// DefaultValidationPrompt asks a model whether retrieved context can answer a
// question. The expected reply starts with "yes" or "no".
var DefaultValidationPrompt = NewPromptTemplate(
	`You are an expert at evaluating whether a given context can help answer a user's question.

Context:
---
{{.context}}
---

Question: {{.query}}

Does the context contain information that is likely to be helpful in answering the question?
Answer only with "yes" or "no".

Answer:`)
