package ollama

func buildAnnotationPrompt(excerpt string) string {
	return `You are a document analyst.
Return a strict JSON object with keys:
summary (string, at most 3 sentences), keywords (array of up to 10 strings),
themes (array of up to 3 strings), documentType (string, e.g. report, letter,
article), tone (string, e.g. formal, informal, technical).
No markdown, no extra keys.

Document:
` + excerpt
}
