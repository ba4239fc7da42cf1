package models

import "strings"

// CommandType enumerates the chat commands understood over WhatsApp.
type CommandType string

const (
	CommandPlants  CommandType = "plants"
	CommandDue     CommandType = "due"
	CommandWater   CommandType = "water"
	CommandReport  CommandType = "report"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"plants": CommandPlants,
	"list":   CommandPlants,
	"due":    CommandDue,
	"today":  CommandDue,
	"water":  CommandWater,
	"report": CommandReport,
	"help":   CommandHelp,
	"start":  CommandHelp,
}

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.ToLower(message))
	cmd := Command{Type: CommandUnknown, Raw: message}
	if len(tokens) == 0 {
		return cmd
	}

	if t, ok := commandAliases[strings.TrimPrefix(tokens[0], "/")]; ok {
		cmd.Type = t
	}
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
