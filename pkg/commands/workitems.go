package commands

import (
	"encoding/json"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
)

const (
	setFlagName         = "set"
	patchFileFlagName   = "file"
	textFlagName        = "text"
	mentionIDFlagName   = "mention-id"
	mentionNameFlagName = "mention-name"
	projectFlagName     = "project"
	teamFlagName        = "team"
)

// WorkItems reads and updates work items
func WorkItems(env *Environment) cli.Command {
	return cli.Command{
		Name:    "workitem",
		Aliases: []string{"wi"},
		Usage:   "read, update and comment on work items",
		Subcommands: []cli.Command{
			workItemGet(env),
			workItemUpdate(env),
			workItemComment(env),
			workItemMaxAzpID(env),
		},
	}
}

func parseWorkItemID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid work item ID '%s'", value)
	}
	return id, nil
}

func workItemGet(env *Environment) cli.Command {
	return cli.Command{
		Name:      "get",
		Usage:     "show a work item",
		ArgsUsage: "<project> <id>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "project", "id"); err != nil {
				return err
			}
			id, err := parseWorkItemID(c.Args().Get(1))
			if err != nil {
				return err
			}
			workItem, err := env.Client.Sync().GetWorkItem(env.context(), env.Token, c.Args().Get(0), id)
			if err != nil {
				return err
			}
			return env.print(workItem)
		},
	}
}

// patchOperations builds "add" operations from field=value pairs, then appends the operations of the patch file
func patchOperations(fields []string, patchFile string) ([]azuredevops.PatchOperation, error) {
	operations := []azuredevops.PatchOperation{}
	for _, field := range fields {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, errors.Errorf("invalid field '%s', expected Field.Name=value", field)
		}
		operations = append(operations, azuredevops.PatchOperation{
			Op:    "add",
			Path:  "/fields/" + strings.TrimSpace(parts[0]),
			Value: parts[1],
		})
	}

	if patchFile != "" {
		content, err := ioutil.ReadFile(patchFile)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read patch file %s", patchFile)
		}
		var fileOperations []azuredevops.PatchOperation
		if err := json.Unmarshal(content, &fileOperations); err != nil {
			return nil, errors.Wrapf(err, "could not parse patch file %s", patchFile)
		}
		operations = append(operations, fileOperations...)
	}

	if len(operations) == 0 {
		return nil, errors.New("nothing to update, use --set or --file")
	}
	return operations, nil
}

func workItemUpdate(env *Environment) cli.Command {
	return cli.Command{
		Name:      "update",
		Usage:     "update the fields of a work item",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			cli.StringSliceFlag{Name: setFlagName, Usage: "set a field, ex: --set System.Title=Title (can be repeated)"},
			cli.StringFlag{Name: patchFileFlagName, Usage: "a file holding a JSON patch document"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "id"); err != nil {
				return err
			}
			id, err := parseWorkItemID(c.Args().First())
			if err != nil {
				return err
			}
			operations, err := patchOperations(c.StringSlice(setFlagName), c.String(patchFileFlagName))
			if err != nil {
				return err
			}
			workItem, err := env.Client.Sync().UpdateWorkItem(env.context(), env.Token, id, operations)
			if err != nil {
				return err
			}
			return env.print(workItem)
		},
	}
}

func workItemComment(env *Environment) cli.Command {
	return cli.Command{
		Name:      "comment",
		Usage:     "comment on a work item, mentioning someone",
		ArgsUsage: "<project-id> <id>",
		Flags: []cli.Flag{
			cli.StringFlag{Name: textFlagName, Usage: "the comment"},
			cli.StringFlag{Name: mentionIDFlagName, Usage: "the ID of the mentioned identity"},
			cli.StringFlag{Name: mentionNameFlagName, Usage: "the display name of the mentioned identity"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "project-id", "id"); err != nil {
				return err
			}
			id, err := parseWorkItemID(c.Args().Get(1))
			if err != nil {
				return err
			}
			if c.String(textFlagName) == "" {
				return errors.New("comment text cannot be empty")
			}
			mention := azuredevops.Mention{
				ID:          c.String(mentionIDFlagName),
				DisplayName: c.String(mentionNameFlagName),
			}
			if mention.ID == "" || mention.DisplayName == "" {
				return errors.New("the mentioned identity ID and display name are required")
			}
			comment, err := env.Client.Sync().AddWorkItemComment(env.context(), env.Token, c.Args().Get(0), id, c.String(textFlagName), mention)
			if err != nil {
				return err
			}
			return env.print(comment)
		},
	}
}

func workItemMaxAzpID(env *Environment) cli.Command {
	return cli.Command{
		Name:  "max-azp-id",
		Usage: "show the highest AZP_ID of the \"Project\" work items",
		Flags: []cli.Flag{
			cli.StringFlag{Name: projectFlagName, Usage: "defaults to the management project"},
			cli.StringFlag{Name: teamFlagName, Usage: "defaults to the management team"},
		},
		Action: func(c *cli.Context) error {
			project := c.String(projectFlagName)
			if project == "" {
				project = env.Args.Management.ProjectName
			}
			team := c.String(teamFlagName)
			if team == "" {
				team = env.Args.Management.ProjectTeam
			}
			if project == "" || team == "" {
				return errors.New("the project and team are required")
			}
			azpID, err := env.Client.Sync().GetMaxAzpID(env.context(), env.Token, project, team)
			if err != nil {
				return err
			}
			return env.print(map[string]int{"azpId": azpID})
		},
	}
}
