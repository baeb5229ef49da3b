package jobchat

import (
	"fmt"
	"strings"
)

// systemMessage scopes the assistant to job writing. The edit contract
// is appended separately when the caller asks for code suggestions.
const systemMessage = `You are an agent helping a non-expert user write a job for OpenFn,
the world's leading digital public good for workflow automation.
You are helping the user write a job in OpenFn's custom DSL, which
is very similar to JavaScript. You should STRICTLY ONLY answer
questions related to OpenFn, JavaScript programming, and workflow automation.`

// jobWritingGuide is a hard-coded job-writing 101 with code examples,
// included until real retrieval against the docsite is wired in.
const jobWritingGuide = `Here is a guide to job writing in OpenFn.

A Job is written in OpenFn DSL code to perform a particular task, like
fetching data from Salesforce or converting JSON data to FHIR standard.

Each job uses exactly one Adaptor to perform its task. The Adaptor provides a
collection of Operations (helper functions) which makes it easy to communicate with
a data source.

A job MUST NOT include an import or require statement.

A job MUST NOT use the execute() function.

A job MUST only contain function calls at the top level.

A job MUST NOT include any other JavaScript statements at the top level.

A job MUST NOT include assignments at the top level.

A job SHOULD NOT use async/await or promises.

A job SHOULD NOT use alterState, instead it should use fn for data transformation.

An Operation is a factory function which returns a function that takes state and returns state, like this:
` + "```" + `
const myOperation = (arg) => (state) => { /* do something with arg and state */ return state; }
` + "```" + `
For example, here's how we issue a GET request with the http adaptor:
` + "```" + `
get('/patients');
` + "```" + `
The first argument to get is the path to request from (the configuration will tell
the adaptor what base url to use). We can also pass a value from state:
` + "```" + `
get(state => state.endpoint);
` + "```"

// editContract tells the model how to propose code changes. The shape
// matches what parse.go extracts and the patch engine applies.
const editContract = `When the user asks you to change their code, respond with a single JSON
object and nothing else, shaped like this:

{
  "response": "<your explanation for the user>",
  "edits": [
    {
      "action": "replace",
      "old_code": "<exact substring of the current code>",
      "new_code": "<replacement text>",
      "explanation": "<why this edit>"
    }
  ]
}

Rules for edits:
- "action" is "replace" for a targeted change or "rewrite" to regenerate the whole job.
- For "replace", "old_code" must be copied byte-for-byte from the current code,
  including whitespace, and must occur exactly once.
- For "rewrite", omit "old_code" and put the entire new job in "new_code".
- Prefer small "replace" edits; use "rewrite" only when the job needs restructuring.
- If no code change is needed, return an empty "edits" array.`

// BuildPrompt assembles the system message and conversation turns for a
// chat request. History is passed through untouched; the question and
// job context form the final user turn.
func BuildPrompt(req *ChatRequest) (string, []Turn) {
	system := systemMessage
	if req.SuggestCode {
		system += "\n\n" + editContract
	}

	turns := make([]Turn, 0, len(req.History)+1)
	turns = append(turns, req.History...)
	turns = append(turns, Turn{Role: RoleUser, Content: buildContext(req)})
	return system, turns
}

// buildContext renders the question plus whatever job context is present.
func buildContext(req *ChatRequest) string {
	sections := []string{fmt.Sprintf(`Please help answer this question.
<question>
%s
</question>

Additional context is provided below:`, req.Content)}

	sections = append(sections, "<job_writing_guide>"+jobWritingGuide+"</job_writing_guide>")

	ctx := req.Context
	if ctx.Adaptor != "" {
		sections = append(sections, fmt.Sprintf(
			"<adaptor>I am using the OpenFn %s adaptor, use functions provided by its API.</adaptor>", ctx.Adaptor))
	}
	if ctx.Expression != "" {
		sections = append(sections, fmt.Sprintf(
			"My code currently looks like this:\n```\n%s\n```\n\nYou should try and re-use any relevant user code in your response.", ctx.Expression))
	}
	if ctx.Input != "" {
		sections = append(sections, fmt.Sprintf("<input>My input data is:\n\n```\n%s\n```</input>", ctx.Input))
	}
	if ctx.Output != "" {
		sections = append(sections, fmt.Sprintf("<output>My last output data was:\n\n```\n%s\n```</output>", ctx.Output))
	}
	if ctx.Log != "" {
		sections = append(sections, fmt.Sprintf("<log>My last log output was:\n\n```\n%s\n```</log>", ctx.Log))
	}

	return strings.Join(sections, "\n\n")
}
