package agent

import (
	"fmt"
	"strings"
)

// loopEnhancements is appended to every primary prompt so the model
// stays oriented inside the bounded improvement loop: it never sees
// iteration history directly, only the carried-forward feedback string,
// so it needs to be told the loop and evidence rules explicitly.
const loopEnhancements = `<loop_awareness>
You may be invoked more than once for this task with feedback from the
previous attempt. Treat feedback as authoritative: address every point
raised rather than re-deriving the same response.
</loop_awareness>

<evidence_expectations>
Commands that require evidence are only accepted once a diff or test
run exists. Prefer making the change and running tests over describing
what you would do.
</evidence_expectations>

<consensus_awareness>
Your response may be pooled with other models' responses and reduced
to a single verdict by majority agreement. State your verdict plainly
so it can be extracted and compared.
</consensus_awareness>
`

// XMLTag wraps content in XML tags: <name>content</name>
func XMLTag(name, content string) string {
	return fmt.Sprintf("<%s>%s</%s>", name, content, name)
}

// XMLSection creates a section with proper formatting
// Output: <name>\ncontent\n</name>
func XMLSection(name, content string) string {
	return fmt.Sprintf("<%s>\n%s\n</%s>", name, strings.TrimSpace(content), name)
}

// XMLList creates an XML list with item elements
// Output: <name>\n<item>a</item>\n<item>b</item>\n</name>
func XMLList(name string, items []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<%s>\n", name))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("<item>%s</item>\n", item))
	}
	sb.WriteString(fmt.Sprintf("</%s>", name))
	return sb.String()
}

// EnhanceLoopPrompt wraps a primary task prompt in the sections a
// provider call inside the bounded improvement loop expects: the raw
// instruction, optional prior feedback, and the standing loop
// enhancements above.
func EnhanceLoopPrompt(instruction, feedback string) string {
	var sb strings.Builder
	sb.WriteString(XMLSection("instruction", instruction))
	if feedback != "" {
		sb.WriteString("\n")
		sb.WriteString(XMLSection("feedback", feedback))
	}
	sb.WriteString("\n")
	sb.WriteString(loopEnhancements)
	return sb.String()
}
