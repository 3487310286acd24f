package intent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iishyfishyy/learnq/internal/command"
)

// TranslationContext is the grounding inlined into every translation request.
type TranslationContext struct {
	Titles    []string
	UserNames []string
}

type workedExample struct {
	utterance string
	reply     string
}

var translationExamples = []workedExample{
	{
		utterance: "what courses do we have?",
		reply:     `{"instruction": "-l", "courseName": null, "filter": null, "userListRequested": false}`,
	},
	{
		utterance: "how many people finished data ethics",
		reply:     `{"instruction": "-s", "courseName": "Data Ethics", "filter": "/completed", "userListRequested": false}`,
	},
	{
		utterance: "who still hasn't started sentiment and summarisation?",
		reply:     `{"instruction": "-s", "courseName": "Sentiment and Summarisation", "filter": "/pending", "userListRequested": true}`,
	},
	{
		utterance: "list everyone who got full marks on data ethics",
		reply:     `{"instruction": "-r", "courseName": "Data Ethics", "filter": "/full", "userListRequested": true}`,
	},
	{
		utterance: "score breakdown for data ethics",
		reply:     `{"instruction": "-r", "courseName": "Data Ethics", "filter": null, "userListRequested": false}`,
	},
	{
		utterance: "show me Jane Smith's courses",
		reply:     `{"instruction": "-info", "courseName": "Jane Smith", "filter": null, "userListRequested": false}`,
	},
	{
		utterance: "what's the weather like",
		reply:     `{"instruction": null, "courseName": null, "filter": null, "userListRequested": false}`,
	},
}

const translationRulesFormat = `You translate requests about an online learning platform into a JSON command.

Reply with exactly one JSON object and nothing else. No prose, no markdown. The object has these keys:
- "instruction": one of "-l", "-s", "-r", "-info", "-x", or null
- "courseName": string or null
- "filter": string or null
- "userListRequested": true or false

Instructions:
- "-l" lists every course. courseName is null.
- "-s" reports assignment statuses for one course.
- "-r" reports scores for one course.
- "-info" reports one learner's courses. courseName holds the learner's full name from the user list.
- "-x" is for requests about the platform that none of the above cover.
- null when the request is not about courses or learners.

Filters:
- with "-s": %s
- with "-r": %s
- null when no filter applies

userListRequested is true only when the request asks who, or asks for names or a list of people. Counting questions leave it false.

courseName must be copied from the course list when the request names a course. If it is unclear which course is meant, give your best reading of the request; it will be matched later.`

var filterNotes = map[command.Filter]string{
	command.FilterFull:  "scored 100",
	command.FilterBelow: "completed under 100",
}

var translationRules = fmt.Sprintf(translationRulesFormat,
	quoteFilters(command.StatusFilters),
	quoteFilters(command.ResultFilters),
)

// quoteFilters renders filters in their wire form for the rules text.
func quoteFilters(filters []command.Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		part := strconv.Quote(f.Wire())
		if note, ok := filterNotes[f]; ok {
			part += " (" + note + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// BuildTranslationPrompt assembles the single user message sent for a
// translation: rules, worked examples, the live catalog, then the utterance.
func BuildTranslationPrompt(tc TranslationContext, utterance string) string {
	var b strings.Builder

	b.WriteString(translationRules)
	b.WriteString("\n\nExamples:\n")
	for _, ex := range translationExamples {
		fmt.Fprintf(&b, "Request: %q\nResponse: %s\n\n", ex.utterance, ex.reply)
	}

	b.WriteString("Courses:\n")
	writeList(&b, tc.Titles)

	if len(tc.UserNames) > 0 {
		b.WriteString("\nLearners:\n")
		writeList(&b, tc.UserNames)
	}

	fmt.Fprintf(&b, "\nRequest: %q\nResponse:", utterance)
	return b.String()
}

// BuildMatchPrompt asks for the single closest entry of options to candidate.
// kind names what the options are, e.g. "course title".
func BuildMatchPrompt(kind string, options []string, candidate string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Here is a list of every %s:\n", kind)
	writeList(&b, options)
	fmt.Fprintf(&b, "\nWhich %s is closest to %q?\n", kind, candidate)
	fmt.Fprintf(&b, "Reply with exactly one %s copied from the list and no other text.", kind)
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
