package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/ogmaresca/azdo-management/pkg/args"
	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
)

// Environment is shared by all commands. It is filled by Setup before a command runs.
type Environment struct {
	Context context.Context

	// Setup parses the global flags and fills Args, Client and Token.
	// It is skipped when help is shown.
	Setup func(c *cli.Context) error

	Args   args.Args
	Client azuredevops.ClientAsync
	Token  string
	Out    io.Writer
}

// NewEnvironment returns an empty Environment writing to stdout
func NewEnvironment(ctx context.Context) *Environment {
	return &Environment{Context: ctx, Out: os.Stdout}
}

func (env *Environment) context() context.Context {
	if env.Context == nil {
		return context.Background()
	}
	return env.Context
}

func (env *Environment) timeoutContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(env.context())
	}
	return context.WithTimeout(env.context(), timeout)
}

// Commands returns every command of the program
func Commands(env *Environment) []cli.Command {
	return withSetup(env, []cli.Command{
		Projects(env),
		Identity(env),
		Descriptor(env),
		WorkItems(env),
		Groups(env),
		Bootstrap(env),
	})
}

// withSetup runs env.Setup before every command that has an action.
// urfave/cli checks for --help before calling Before, so help never needs a client.
func withSetup(env *Environment, commands []cli.Command) []cli.Command {
	for i := range commands {
		if len(commands[i].Subcommands) > 0 {
			commands[i].Subcommands = withSetup(env, commands[i].Subcommands)
			continue
		}
		commands[i].Before = env.before
	}
	return commands
}

func (env *Environment) before(c *cli.Context) error {
	if env.Setup != nil {
		if err := env.Setup(c); err != nil {
			return err
		}
	}
	if env.Client == nil {
		return errors.New("the Azure Devops client is not configured")
	}
	return nil
}

func (env *Environment) print(value interface{}) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not serialize the result")
	}
	_, err = env.Out.Write(append(encoded, '\n'))
	return err
}

func requireArgs(c *cli.Context, names ...string) error {
	if c.NArg() != len(names) {
		return errors.Errorf("%s expects %d argument(s): %v", c.Command.Name, len(names), names)
	}
	return nil
}
