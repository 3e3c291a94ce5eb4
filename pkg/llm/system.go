package llm

const metadataDraftPrompt = `You are an SEO copywriter for an online store.
Write a new %[1]s for the %[2]s described below.

Rules:
- Reply with the %[1]s only. No quotes, no labels, no explanation.
- At most %[3]d characters.
- Describe what the page offers in plain language. Do not stuff keywords.
- Keep the store's existing tone if current values are given.

Asset type: %[2]s
Handle: %[4]s
Title: %[5]s
Current SEO title: %[6]s
Current SEO description: %[7]s
`
