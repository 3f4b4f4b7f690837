package adapters

import "github.com/ZanzyTHEbar/errbuilder-go"

// NonInteractivePrompter always errors, turning an ambiguous version or
// provider choice into a failed selection instead of blocking on terminal
// input — used in CI/non-interactive runs.
type NonInteractivePrompter struct{}

func (NonInteractivePrompter) Choose(prompt string, options []string) (string, error) {
	return "", errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("ambiguous choice requires a decision and no interactive prompter is configured: " + prompt)
}
