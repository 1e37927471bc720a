package args

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v2"
)

// Global flag names
const (
	ConfigFlag            = "config"
	LogLevelFlag          = "log-level"
	OrganizationFlag      = "organization"
	TokenFlag             = "token"
	TokenSecretFlag       = "token-secret"
	APIVersionFlag        = "api-version"
	ManagementProjectFlag = "management-project"
	ManagementTeamFlag    = "management-team"
	ManagementIDFlag      = "management-project-id"
	ProcessTemplateFlag   = "process-template"
	ReleaseOwnerFlag      = "release-owner"
	PushGatewayFlag       = "pushgateway"
	PushJobFlag           = "push-job"

	defaultLogLevel = "info"
	defaultPushJob  = "azdo_management"
)

// Args holds all of the program arguments
type Args struct {
	Logging    LoggingArgs
	AZD        AzureDevopsArgs
	Kubernetes KubernetesArgs
	Management ManagementArgs
	Metrics    MetricsArgs
}

// LoggingArgs holds all of the logging related args
type LoggingArgs struct {
	Level log.Level
}

// AzureDevopsArgs holds all of the Azure Devops related args
type AzureDevopsArgs struct {
	Organization string
	Token        string
	APIVersion   string
	// ReleaseOwner is the identity ID that owns the stage of the disposable release definition
	ReleaseOwner string
}

// KubernetesArgs holds the Kubernetes secret the access token can be read from
type KubernetesArgs struct {
	Namespace string
	Name      string
	Key       string
}

// IsSet determines if a token secret was configured
func (a KubernetesArgs) IsSet() bool {
	return a.Namespace != "" || a.Name != "" || a.Key != ""
}

// FriendlyName returns the name used to reference the secret in the CLI, ex: secret/azdo-token
func (a KubernetesArgs) FriendlyName() string {
	return fmt.Sprintf("secret/%s", a.Name)
}

// ManagementArgs holds the settings of the project that tracks created projects
type ManagementArgs struct {
	ProjectName       string
	ProjectTeam       string
	ProjectID         string
	ProcessTemplateID string
}

// MetricsArgs holds all of the metrics related args
type MetricsArgs struct {
	PushGateway string
	Job         string
}

// fileConfig is the YAML configuration file
type fileConfig struct {
	LogLevel              string `yaml:"logLevel"`
	Organization          string `yaml:"organization"`
	AccessToken           string `yaml:"accessToken"`
	TokenSecret           string `yaml:"tokenSecret"`
	APIVersion            string `yaml:"apiVersion"`
	ManagementProjectName string `yaml:"managementProjectName"`
	ManagementProjectTeam string `yaml:"managementProjectTeam"`
	ManagementProjectID   string `yaml:"managementProjectId"`
	ProcessTemplateID     string `yaml:"processTemplateId"`
	ReleaseOwnerID        string `yaml:"releaseOwnerId"`
	PushGateway           string `yaml:"pushGateway"`
	PushJob               string `yaml:"pushJob"`
}

// Flags returns the global flags of the program
func Flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: ConfigFlag, EnvVar: "AZDO_CONFIG", Usage: "Path to a YAML configuration file. Flags take precedence over the file."},
		cli.StringFlag{Name: LogLevelFlag, EnvVar: "AZDO_LOG_LEVEL", Usage: "Log level (trace, debug, info, warn, error, fatal, panic). Default: info"},
		cli.StringFlag{Name: OrganizationFlag, EnvVar: "AZDO_ORGANIZATION", Usage: "The Azure Devops organization, ex: myorg or https://dev.azure.com/myorg"},
		cli.StringFlag{Name: TokenFlag, EnvVar: "AZDO_ACCESS_TOKEN", Usage: "The OAuth access token sent as the bearer credential."},
		cli.StringFlag{Name: TokenSecretFlag, EnvVar: "AZDO_TOKEN_SECRET", Usage: "Read the access token from a Kubernetes secret, ex: namespace/name/key"},
		cli.StringFlag{Name: APIVersionFlag, EnvVar: "AZDO_API_VERSION", Usage: "The default api-version of Azure Devops requests."},
		cli.StringFlag{Name: ManagementProjectFlag, EnvVar: "AZDO_MANAGEMENT_PROJECT", Usage: "The project holding the \"Project\" work items."},
		cli.StringFlag{Name: ManagementTeamFlag, EnvVar: "AZDO_MANAGEMENT_TEAM", Usage: "The team of the management project."},
		cli.StringFlag{Name: ManagementIDFlag, EnvVar: "AZDO_MANAGEMENT_PROJECT_ID", Usage: "The ID of the management project."},
		cli.StringFlag{Name: ProcessTemplateFlag, EnvVar: "AZDO_PROCESS_TEMPLATE", Usage: "The process template ID of created projects."},
		cli.StringFlag{Name: ReleaseOwnerFlag, EnvVar: "AZDO_RELEASE_OWNER", Usage: "The identity ID that owns the stage of the release definition created to provision Release Administrators."},
		cli.StringFlag{Name: PushGatewayFlag, EnvVar: "AZDO_PUSHGATEWAY", Usage: "Push metrics to this Prometheus Pushgateway when the command ends."},
		cli.StringFlag{Name: PushJobFlag, EnvVar: "AZDO_PUSH_JOB", Usage: "The job name used when pushing metrics."},
	}
}

// ArgsFromContext returns an Args parsed from the global flags and the configuration file
func ArgsFromContext(c *cli.Context) (Args, error) {
	file := fileConfig{}
	if path := c.GlobalString(ConfigFlag); path != "" {
		var err error
		if file, err = readConfigFile(path); err != nil {
			return Args{}, err
		}
	}

	values := map[string]string{
		LogLevelFlag:          pick(c.GlobalString(LogLevelFlag), file.LogLevel, defaultLogLevel),
		OrganizationFlag:      pick(c.GlobalString(OrganizationFlag), file.Organization),
		TokenFlag:             pick(c.GlobalString(TokenFlag), file.AccessToken),
		TokenSecretFlag:       pick(c.GlobalString(TokenSecretFlag), file.TokenSecret),
		APIVersionFlag:        pick(c.GlobalString(APIVersionFlag), file.APIVersion),
		ManagementProjectFlag: pick(c.GlobalString(ManagementProjectFlag), file.ManagementProjectName),
		ManagementTeamFlag:    pick(c.GlobalString(ManagementTeamFlag), file.ManagementProjectTeam),
		ManagementIDFlag:      pick(c.GlobalString(ManagementIDFlag), file.ManagementProjectID),
		ProcessTemplateFlag:   pick(c.GlobalString(ProcessTemplateFlag), file.ProcessTemplateID),
		ReleaseOwnerFlag:      pick(c.GlobalString(ReleaseOwnerFlag), file.ReleaseOwnerID),
		PushGatewayFlag:       pick(c.GlobalString(PushGatewayFlag), file.PushGateway),
		PushJobFlag:           pick(c.GlobalString(PushJobFlag), file.PushJob, defaultPushJob),
	}

	if err := validate(values); err != nil {
		return Args{}, err
	}
	return argsFromValues(values), nil
}

func readConfigFile(path string) (fileConfig, error) {
	file := fileConfig{}
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return file, errors.Wrapf(err, "could not read configuration file %s", path)
	}
	if err := yaml.UnmarshalStrict(content, &file); err != nil {
		return file, errors.Wrapf(err, "could not parse configuration file %s", path)
	}
	return file, nil
}

// pick returns the first non-empty value
func pick(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func argsFromValues(values map[string]string) Args {
	// error is validated in validate()
	logrusLevel, _ := log.ParseLevel(values[LogLevelFlag])
	secret, _ := parseTokenSecret(values[TokenSecretFlag])
	return Args{
		Logging: LoggingArgs{
			Level: logrusLevel,
		},
		AZD: AzureDevopsArgs{
			Organization: values[OrganizationFlag],
			Token:        values[TokenFlag],
			APIVersion:   values[APIVersionFlag],
			ReleaseOwner: values[ReleaseOwnerFlag],
		},
		Kubernetes: secret,
		Management: ManagementArgs{
			ProjectName:       values[ManagementProjectFlag],
			ProjectTeam:       values[ManagementTeamFlag],
			ProjectID:         values[ManagementIDFlag],
			ProcessTemplateID: values[ProcessTemplateFlag],
		},
		Metrics: MetricsArgs{
			PushGateway: values[PushGatewayFlag],
			Job:         values[PushJobFlag],
		},
	}
}

// parseTokenSecret parses namespace/name/key
func parseTokenSecret(value string) (KubernetesArgs, error) {
	if value == "" {
		return KubernetesArgs{}, nil
	}
	parts := strings.Split(value, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return KubernetesArgs{}, fmt.Errorf("Token secret '%s' must have the format namespace/name/key.", value)
	}
	return KubernetesArgs{
		Namespace: parts[0],
		Name:      parts[1],
		Key:       parts[2],
	}, nil
}

// validate validates all of the arguments
func validate(values map[string]string) error {
	var validationErrors []string
	if _, err := log.ParseLevel(values[LogLevelFlag]); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if values[OrganizationFlag] == "" {
		validationErrors = append(validationErrors, "The Azure Devops organization is required.")
	}
	if values[TokenFlag] == "" && values[TokenSecretFlag] == "" {
		validationErrors = append(validationErrors, "The Azure Devops access token or token secret is required.")
	} else if values[TokenFlag] != "" && values[TokenSecretFlag] != "" {
		validationErrors = append(validationErrors, "Only one of the access token and the token secret can be set.")
	}
	if _, err := parseTokenSecret(values[TokenSecretFlag]); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if len(validationErrors) > 0 {
		return fmt.Errorf("Error(s) with arguments:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
