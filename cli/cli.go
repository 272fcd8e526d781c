package cli

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/ratchet/app/config"
	actx "go.hackfix.me/ratchet/app/context"
)

// CLI is the command line interface of ratchet.
type CLI struct {
	Migrate Migrate `kong:"cmd,default='withargs',help='Migrate the database to a target schema version.'"`
	Status  Status  `kong:"cmd,help='Show the available migrations and the current schema version.'"`
	Create  Create  `kong:"cmd,help='Create the next pair of migration scripts.'"`
	Init    Init    `kong:"cmd,help='Write the configuration file and create the migrations directory.'"`

	Globals `embed:""`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: kong.ConfigFlag isn't used, since the configuration file is
	// managed independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the ratchet configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(appCtx *actx.Context, configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("ratchet"),
		kong.Description("Move a database between schema versions using paired up/down migration scripts.\n\n"+
			"Only one ratchet process may migrate a given database at a time."),
		kong.UsageOnError(),
		kong.DefaultEnvars("RATCHET"),
		kong.Resolvers(envResolver(appCtx.Env)),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"drivers":    driverNames(),
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx, &c.Globals)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(escapeNegativeArg(args))
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

var negativeIntRx = regexp.MustCompile(`^-[0-9]+$`)

// escapeNegativeArg inserts "--" before the first negative integer in args,
// so that kong reads it as a positional argument instead of a short flag.
// args are returned unchanged if "--" already precedes it.
func escapeNegativeArg(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args
		}
		if negativeIntRx.MatchString(arg) {
			escaped := make([]string, 0, len(args)+1)
			escaped = append(escaped, args[:i]...)
			escaped = append(escaped, "--")
			return append(escaped, args[i:]...)
		}
	}

	return args
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set via flags or environment variables. Values missing from both are
// set to their defaults.
func (c *CLI) ApplyConfig(cfg *config.Config) error {
	if c.DatabaseURL == "" && cfg.Database.URL.Valid {
		c.DatabaseURL = cfg.Database.URL.V
	}
	if c.Driver == "" && cfg.Database.Driver.Valid {
		c.Driver = string(cfg.Database.Driver.V)
	}
	if c.MigrationsDir == "" && cfg.Migrations.Dir.Valid {
		c.MigrationsDir = cfg.Migrations.Dir.V
	}

	c.inferDriver()

	defaults := config.Config{}
	defaults.SetDefaults()
	if c.Driver == "" {
		c.Driver = string(defaults.Database.Driver.V)
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = defaults.Migrations.Dir.V
	}

	return c.Globals.validate()
}

// envResolver resolves flag values from the process environment, using the
// environment variable names assigned by kong.DefaultEnvars.
func envResolver(env actx.Environment) kong.Resolver {
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		if env == nil {
			return nil, nil
		}
		for _, name := range flag.Envs {
			if val, ok := env.Lookup(name); ok {
				return val, nil
			}
		}
		return nil, nil //nolint:nilnil // No value is a valid result.
	})
}
