package engine

import "strings"

// Input is one "-i" source together with the options that precede it
type Input struct {
	Options []string
	Source  string
}

// Command describes an ffmpeg invocation in stages: global options, inputs,
// the video filter chain and output options. It is only turned into
// arguments by Args.
type Command struct {
	GlobalOptions []string
	Inputs        []Input
	Filters       []string
	OutputOptions []string
	Output        string
}

// AddInput appends an input source
func (c *Command) AddInput(source string, options ...string) *Command {
	c.Inputs = append(c.Inputs, Input{Options: options, Source: source})
	return c
}

// AddFilter appends non-empty filters to the chain
func (c *Command) AddFilter(filters ...string) *Command {
	for _, f := range filters {
		if f != "" {
			c.Filters = append(c.Filters, f)
		}
	}
	return c
}

// AddOutputOptions appends output options
func (c *Command) AddOutputOptions(options ...string) *Command {
	c.OutputOptions = append(c.OutputOptions, options...)
	return c
}

// FilterChain returns the comma separated filter graph
func (c *Command) FilterChain() string {
	return strings.Join(c.Filters, ",")
}

// Args renders the command to ffmpeg arguments (without the binary)
func (c *Command) Args() []string {
	args := []string{"-y"}
	args = append(args, c.GlobalOptions...)

	for _, in := range c.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Source)
	}

	if len(c.Filters) > 0 {
		args = append(args, "-vf", c.FilterChain())
	}

	args = append(args, c.OutputOptions...)
	args = append(args, c.Output)
	return args
}

// String is the shell-like form used in logs
func (c *Command) String() string {
	return "ffmpeg " + strings.Join(c.Args(), " ")
}
