package commands

import (
	"github.com/urfave/cli"
)

// Identity searches for groups
func Identity(env *Environment) cli.Command {
	return cli.Command{
		Name:  "identity",
		Usage: "look up project and organization groups",
		Subcommands: []cli.Command{
			{
				Name:      "group",
				Usage:     "look up a project group, ex: identity group myproject Contributors",
				ArgsUsage: "<project> <group>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, "project", "group"); err != nil {
						return err
					}
					identities, err := env.Client.Sync().GetGroupIdentity(env.context(), env.Token, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					return env.print(identities)
				},
			},
			{
				Name:      "org",
				Usage:     "look up an organization group, ex: identity org 'Project Collection Administrators'",
				ArgsUsage: "<group>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, "group"); err != nil {
						return err
					}
					identities, err := env.Client.Sync().GetOrganizationGroupIdentity(env.context(), env.Token, c.Args().First())
					if err != nil {
						return err
					}
					return env.print(identities)
				},
			},
		},
	}
}

// Descriptor resolves a storage key to a graph descriptor
func Descriptor(env *Environment) cli.Command {
	return cli.Command{
		Name:      "descriptor",
		Usage:     "resolve the ID of a project or group to its graph descriptor",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "id"); err != nil {
				return err
			}
			descriptor, err := env.Client.Sync().GetDescriptor(env.context(), env.Token, c.Args().First())
			if err != nil {
				return err
			}
			return env.print(descriptor)
		},
	}
}
