package commands

import (
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
)

const (
	nameFlagName            = "name"
	descriptionFlagName     = "description"
	processTemplateFlagName = "process-template"
	visibilityFlagName      = "visibility"
	timeoutFlagName         = "timeout"
)

// Projects manages the projects of the organization
func Projects(env *Environment) cli.Command {
	return cli.Command{
		Name:  "projects",
		Usage: "list, show and create projects",
		Subcommands: []cli.Command{
			projectsList(env),
			projectsGet(env),
			projectsCreate(env),
			projectsStatus(env),
			projectsWait(env),
		},
	}
}

func projectsList(env *Environment) cli.Command {
	return cli.Command{
		Name:  "list",
		Usage: "list the projects of the organization",
		Action: func(c *cli.Context) error {
			projects, err := env.Client.Sync().ListProjects(env.context(), env.Token)
			if err != nil {
				return err
			}
			return env.print(projects)
		},
	}
}

func projectsGet(env *Environment) cli.Command {
	return cli.Command{
		Name:      "get",
		Usage:     "show a project",
		ArgsUsage: "<project>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "project"); err != nil {
				return err
			}
			project, err := env.Client.Sync().GetProject(env.context(), env.Token, c.Args().First())
			if err != nil {
				return err
			}
			return env.print(project)
		},
	}
}

func projectDescriptorFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: nameFlagName, Usage: "the name of the project"},
		cli.StringFlag{Name: descriptionFlagName, Usage: "the description of the project"},
		cli.StringFlag{Name: processTemplateFlagName, Usage: "the process template ID, defaults to the global process template"},
		cli.StringFlag{Name: visibilityFlagName, Value: azuredevops.VisibilityPrivate, Usage: "private or public"},
	}
}

func projectDescriptor(env *Environment, c *cli.Context) (azuredevops.ProjectDescriptor, error) {
	descriptor := azuredevops.ProjectDescriptor{
		Name:              c.String(nameFlagName),
		Description:       c.String(descriptionFlagName),
		ProcessTemplateID: c.String(processTemplateFlagName),
		Visibility:        c.String(visibilityFlagName),
	}
	if descriptor.ProcessTemplateID == "" {
		descriptor.ProcessTemplateID = env.Args.Management.ProcessTemplateID
	}
	if descriptor.Name == "" {
		return descriptor, errors.New("project name cannot be empty")
	}
	if descriptor.ProcessTemplateID == "" {
		return descriptor, errors.New("process template cannot be empty")
	}
	return descriptor, nil
}

func projectsCreate(env *Environment) cli.Command {
	return cli.Command{
		Name:  "create",
		Usage: "queue the creation of a project and print the operation ID",
		Flags: projectDescriptorFlags(),
		Action: func(c *cli.Context) error {
			descriptor, err := projectDescriptor(env, c)
			if err != nil {
				return err
			}
			operationID, err := env.Client.Sync().CreateProject(env.context(), env.Token, descriptor)
			if err != nil {
				return err
			}
			return env.print(map[string]string{"operationId": operationID})
		},
	}
}

func projectsStatus(env *Environment) cli.Command {
	return cli.Command{
		Name:      "status",
		Usage:     "show the status of an operation",
		ArgsUsage: "<operation-id>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "operation-id"); err != nil {
				return err
			}
			operation, err := env.Client.Sync().GetOperation(env.context(), env.Token, c.Args().First())
			if err != nil {
				return err
			}
			return env.print(operation)
		},
	}
}

func projectsWait(env *Environment) cli.Command {
	return cli.Command{
		Name:      "wait",
		Usage:     "wait for an operation to finish",
		ArgsUsage: "<operation-id>",
		Flags: []cli.Flag{
			cli.DurationFlag{Name: timeoutFlagName, Value: 10 * time.Minute, Usage: "stop waiting after this duration"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "operation-id"); err != nil {
				return err
			}
			ctx, cancel := env.timeoutContext(c.Duration(timeoutFlagName))
			defer cancel()

			operation, err := env.Client.Sync().WaitForOperation(ctx, env.Token, c.Args().First())
			if operation != nil {
				if printErr := env.print(operation); printErr != nil && err == nil {
					err = printErr
				}
			}
			return err
		},
	}
}
