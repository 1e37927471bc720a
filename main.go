package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/ogmaresca/azdo-management/pkg/args"
	"github.com/ogmaresca/azdo-management/pkg/azuredevops"
	"github.com/ogmaresca/azdo-management/pkg/commands"
	"github.com/ogmaresca/azdo-management/pkg/kubernetes"
	"github.com/ogmaresca/azdo-management/pkg/logging"
	"github.com/ogmaresca/azdo-management/pkg/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := makeApp(commands.NewEnvironment(ctx))
	if err := app.Run(os.Args); err != nil {
		cancel()
		logging.Logger.Fatal(err.Error())
	}
}

func makeApp(env *commands.Environment, clientOptions ...azuredevops.Option) *cli.App {
	app := cli.NewApp()
	app.Name = "azdo-management"
	app.Usage = "manage Azure Devops projects, work items and administrators groups"
	app.Writer = env.Out
	app.Flags = args.Flags()
	app.Commands = commands.Commands(env)
	env.Setup = func(c *cli.Context) error {
		return setup(c, env, clientOptions...)
	}
	app.After = func(c *cli.Context) error {
		pushMetrics(env.Args.Metrics)
		return nil
	}
	return app
}

// setup parses the global flags and initializes the Azure Devops client
func setup(c *cli.Context, env *commands.Environment, clientOptions ...azuredevops.Option) error {
	parsedArgs, err := args.ArgsFromContext(c)
	if err != nil {
		return err
	}
	logging.SetLevel(parsedArgs.Logging.Level)

	var k8sClient kubernetes.Client
	if parsedArgs.AZD.Token == "" && parsedArgs.Kubernetes.IsSet() {
		if k8sClient, err = kubernetes.MakeClient(); err != nil {
			return err
		}
	}
	token, err := kubernetes.ResolveToken(k8sClient, parsedArgs.AZD, parsedArgs.Kubernetes)
	if err != nil {
		return err
	}

	options := append([]azuredevops.Option{
		azuredevops.WithAPIVersion(parsedArgs.AZD.APIVersion),
		azuredevops.WithReleaseOwner(parsedArgs.AZD.ReleaseOwner),
	}, clientOptions...)
	azdClient, err := azuredevops.MakeClient(parsedArgs.AZD.Organization, options...)
	if err != nil {
		return err
	}

	env.Args = parsedArgs
	env.Token = token
	env.Client = azuredevops.MakeFromClient(azdClient)
	return nil
}

func pushMetrics(metricsArgs args.MetricsArgs) {
	if metricsArgs.PushGateway == "" {
		return
	}
	if err := metrics.Push(metricsArgs.PushGateway, metricsArgs.Job); err != nil {
		logging.Logger.Warnf("Could not push metrics to %s: %s", metricsArgs.PushGateway, err.Error())
	}
}
