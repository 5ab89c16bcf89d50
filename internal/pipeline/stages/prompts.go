package stages

import "strings"

const systemInsight = `You are a careful reader extracting structured insights from a book excerpt. ` +
	`Always respond with a single top-level JSON array and nothing else.`

var insightPrompts = []struct {
	insightType string // BookInsight.type persisted for this sub-extraction
	template    string
}{
	{
		insightType: "key_concept",
		template: `Book: "{title}" by {author}\n\nExcerpt:\n{content}\n\n` +
			`List the key concepts introduced in this excerpt. Respond as a JSON array of ` +
			`objects with fields: title, content, importance (1-10).`,
	},
	{
		insightType: "framework",
		template: `Book: "{title}" by {author}\n\nExcerpt:\n{content}\n\n` +
			`List any frameworks, models, or structured methods described in this excerpt. ` +
			`Respond as a JSON array of objects with fields: title, content, importance (1-10).`,
	},
	{
		insightType: "takeaway",
		template: `Book: "{title}" by {author}\n\nExcerpt:\n{content}\n\n` +
			`List the most important practical takeaways from this excerpt. ` +
			`Respond as a JSON array of objects with fields: title, content, importance (1-10).`,
	},
}

func renderPrompt(template, title, author, content string) string {
	r := strings.NewReplacer("{title}", title, "{author}", author, "{content}", content)
	return r.Replace(template)
}
