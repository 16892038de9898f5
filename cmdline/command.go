package cmdline

import "strings"

// Command binds a bare token (its name or alias) to a child Parser. When the
// token is matched, every remaining token is handed to the child.
type Command struct {
	name        string
	alias       string
	description string
	parser      *Parser
}

// NewCommand pairs a name and optional alias with sub. A nil sub gets an
// empty parser with default options.
func NewCommand(name, alias, description string, sub *Parser) (*Command, error) {
	if strings.TrimSpace(name) == "" {
		return nil, configError("command name must not be empty")
	}
	if sub == nil {
		sub = New(description)
	}
	return &Command{
		name:        name,
		alias:       alias,
		description: description,
		parser:      sub,
	}, nil
}

// Name returns the command name
func (c *Command) Name() string { return c.name }

// Alias returns the command alias, or ""
func (c *Command) Alias() string { return c.alias }

// Description returns the command description
func (c *Command) Description() string { return c.description }

// Parser returns the child parser owned by the command
func (c *Command) Parser() *Parser { return c.parser }
