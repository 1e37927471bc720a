package commands

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
	"github.com/ogmaresca/azdo-management/pkg/bootstrap"
)

const groupFlagName = "group"

// Groups triggers the creation of administrators groups
func Groups(env *Environment) cli.Command {
	return cli.Command{
		Name:  "groups",
		Usage: "provision the administrators groups of a project",
		Subcommands: []cli.Command{
			{
				Name:      "trigger",
				Usage:     "create and delete the resources that provision administrators groups",
				ArgsUsage: "<project>",
				Flags: []cli.Flag{
					cli.StringSliceFlag{Name: groupFlagName, Usage: fmt.Sprintf("only trigger this group (%s)", strings.Join(groupNames(), ", "))},
				},
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, "project"); err != nil {
						return err
					}
					groups, err := selectedGroups(c.StringSlice(groupFlagName))
					if err != nil {
						return err
					}
					return triggerGroups(env, c.Args().First(), groups)
				},
			},
		},
	}
}

func groupNames() []string {
	var names []string
	for _, group := range azuredevops.AdminGroups {
		names = append(names, string(group))
	}
	return names
}

func selectedGroups(names []string) ([]azuredevops.AdminGroup, error) {
	if len(names) == 0 {
		return azuredevops.AdminGroups, nil
	}
	var groups []azuredevops.AdminGroup
	for _, name := range names {
		group, err := azuredevops.ParseAdminGroup(name)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func triggerGroups(env *Environment, projectName string, groups []azuredevops.AdminGroup) error {
	project, err := env.Client.Sync().GetProject(env.context(), env.Token, projectName)
	if err != nil {
		return err
	}

	triggered, err := bootstrap.TriggerGroups(env.context(), env.Client, env.Token, *project, groups)
	if printErr := env.print(map[string][]string{"triggered": triggered}); printErr != nil && err == nil {
		err = printErr
	}
	return err
}

// Bootstrap creates a project and provisions its administrators groups
func Bootstrap(env *Environment) cli.Command {
	return cli.Command{
		Name:  "bootstrap",
		Usage: "create a project, wait for it and provision its administrators groups",
		Flags: append(projectDescriptorFlags(),
			cli.DurationFlag{Name: timeoutFlagName, Usage: "stop after this duration, 0 waits forever"},
		),
		Action: func(c *cli.Context) error {
			descriptor, err := projectDescriptor(env, c)
			if err != nil {
				return err
			}
			ctx, cancel := env.timeoutContext(c.Duration(timeoutFlagName))
			defer cancel()

			result, err := bootstrap.Bootstrap(ctx, env.Client, env.Token, bootstrap.Request{
				Project:           descriptor,
				ManagementProject: env.Args.Management.ProjectName,
				ManagementTeam:    env.Args.Management.ProjectTeam,
			})
			if result != nil {
				if printErr := env.print(result); printErr != nil && err == nil {
					err = printErr
				}
			}
			return err
		},
	}
}
