package client

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// MultipleCommandsDelimiter separates alternative spellings of a command.
const MultipleCommandsDelimiter = "|"

type ControlFlow int

const (
	CONTINUE ControlFlow = iota
	EXIT
	NOTFOUND
)

type CommandDescription struct {
	Name     string
	Syntax   string
	HelpText string
}

// ServerCommands are executed against the API by SendCommand.
var ServerCommands = []CommandDescription{
	{Name: "Ping", Syntax: "PING", HelpText: "Check that the server is reachable"},
	{Name: "Get", Syntax: "GET <key>", HelpText: "Get the value of a key"},
	{Name: "Set", Syntax: "SET <key> <json|text>", HelpText: "Set a key, values are parsed as JSON when possible"},
	{Name: "Delete", Syntax: fmt.Sprintf("DEL <key> %s DELETE <key>", MultipleCommandsDelimiter), HelpText: "Delete a key"},
	{Name: "Clear", Syntax: fmt.Sprintf("CLEAR %s FLUSHDB", MultipleCommandsDelimiter), HelpText: "Remove every key"},
	{Name: "Increment", Syntax: "INCR <key> [delta]", HelpText: "Increment an integer counter"},
	{Name: "Decrement", Syntax: "DECR <key> [delta]", HelpText: "Decrement an integer counter"},
	{Name: "Keys", Syntax: "KEYS [pattern]", HelpText: "List keys, optionally matching a glob or substring"},
	{Name: "Health", Syntax: "HEALTH", HelpText: "Show storage health"},
}

type ClientSpecificCommand interface {
	Command() []string
	Execute(client *Client, args []string) ClientCommandRegistryResponse
	GetCommandInfo() CommandDescription
}

type ClientCommandRegistry struct {
	commands map[string]ClientSpecificCommand
}

type ClientCommandRegistryResponse struct {
	Response    string
	ControlFlow ControlFlow
}

func AllCommands() []ClientSpecificCommand {
	return []ClientSpecificCommand{
		&ClearScreenCommand{},
		&ExitCommand{},
		&HelpCommand{},
	}
}

func NewCommandRegistry() *ClientCommandRegistry {
	commandRegistry := &ClientCommandRegistry{commands: make(map[string]ClientSpecificCommand)}

	for _, command := range AllCommands() {
		commandRegistry.Register(command.Command(), command)
	}

	return commandRegistry
}

// list of strings that can all be used as the SAME command
func (r *ClientCommandRegistry) Register(names []string, command ClientSpecificCommand) {
	for _, name := range names {
		r.commands[name] = command
	}
}

func (r *ClientCommandRegistry) Execute(name string, client *Client, args []string) ClientCommandRegistryResponse {
	name = strings.ToUpper(name)
	if command, exists := r.commands[name]; exists {
		return command.Execute(client, args)
	}
	return ClientCommandRegistryResponse{Response: fmt.Sprintf("Command %s not found", name), ControlFlow: NOTFOUND}
}

type ClearScreenCommand struct{}

func (c *ClearScreenCommand) Command() []string {
	return []string{"CLS"}
}

func (c *ClearScreenCommand) Execute(client *Client, args []string) ClientCommandRegistryResponse {
	fmt.Print("\033[H\033[2J")
	return ClientCommandRegistryResponse{Response: "Screen cleared", ControlFlow: CONTINUE}
}

func (c *ClearScreenCommand) GetCommandInfo() CommandDescription {
	return CommandDescription{Name: "Clear screen", Syntax: "CLS", HelpText: "Clear the screen"}
}

type ExitCommand struct{}

func (c *ExitCommand) Command() []string {
	return []string{"EXIT", "QUIT"}
}

func (c *ExitCommand) Execute(client *Client, args []string) ClientCommandRegistryResponse {
	return ClientCommandRegistryResponse{Response: "Bye...", ControlFlow: EXIT}
}

func (c *ExitCommand) GetCommandInfo() CommandDescription {
	return CommandDescription{
		Name:     "Exit",
		Syntax:   fmt.Sprintf("EXIT %s QUIT", MultipleCommandsDelimiter),
		HelpText: "Exit the client",
	}
}

type HelpCommand struct{}

func (c *HelpCommand) Command() []string {
	return []string{"HELP", "?"}
}

func (c *HelpCommand) Execute(client *Client, args []string) ClientCommandRegistryResponse {
	descriptions := append([]CommandDescription{}, ServerCommands...)
	for _, command := range AllCommands() {
		descriptions = append(descriptions, command.GetCommandInfo())
	}

	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"Command", "Syntax", "Description"})
	table.SetRowLine(true)
	table.SetAutoMergeCells(true)

	// alternatives get one row each; identical names and descriptions merge
	delimiter := fmt.Sprintf(" %s ", MultipleCommandsDelimiter)
	for _, description := range descriptions {
		for _, syntax := range strings.Split(description.Syntax, delimiter) {
			table.Append([]string{description.Name, syntax, description.HelpText})
		}
	}

	table.Render()

	return ClientCommandRegistryResponse{Response: tableString.String(), ControlFlow: CONTINUE}
}

func (c *HelpCommand) GetCommandInfo() CommandDescription {
	return CommandDescription{
		Name:     "Help",
		Syntax:   fmt.Sprintf("HELP %s ?", MultipleCommandsDelimiter),
		HelpText: "Show this help message",
	}
}
