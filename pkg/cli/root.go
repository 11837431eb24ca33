package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// stdout is where commands write their output
var stdout io.Writer = os.Stdout

// defaultServer is the API address used when -server is not given
func defaultServer() string {
	if url := os.Getenv("PETSTORE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "petstore",
		Description: "Pet Store CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("petstore", flag.ContinueOnError),
	}

	// Add subcommands
	root.Subcommands["list"] = newListCommand()
	root.Subcommands["get"] = newGetCommand()
	root.Subcommands["add"] = newAddCommand()
	root.Subcommands["update"] = newUpdateCommand()
	root.Subcommands["remove"] = newRemoveCommand()
	root.Subcommands["seed"] = newSeedCommand()

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command with the given arguments
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(stdout, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(stdout, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	return fs
}
