package adapters

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// StdinPrompter implements ports.PrompterPort by asking an interactive
// operator to pick among options on the terminal, used when the resolver
// meets tied candidate versions or several providers of a virtual name.
type StdinPrompter struct {
	In  io.Reader
	Out io.Writer
}

func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{In: in, Out: out}
}

func (p *StdinPrompter) Choose(prompt string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("no options to choose from")
	}
	fmt.Fprintln(p.Out, prompt)
	for i, opt := range options {
		fmt.Fprintf(p.Out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(p.Out, "choice: ")

	scanner := bufio.NewScanner(p.In)
	if !scanner.Scan() {
		return "", errbuilder.New().WithCode(errbuilder.CodeFailedPrecondition).WithMsg("no input available for prompt")
	}
	answer := strings.TrimSpace(scanner.Text())

	if idx, err := strconv.Atoi(answer); err == nil {
		if idx >= 1 && idx <= len(options) {
			return options[idx-1], nil
		}
	}
	for _, opt := range options {
		if opt == answer {
			return opt, nil
		}
	}
	return "", errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("invalid choice: " + answer)
}
