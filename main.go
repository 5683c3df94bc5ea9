// ABOUTME: Entry point for the dealflow CRM: CLI, MCP server, TUI and web board
// ABOUTME: Loads config, opens the record store and routes to the requested command
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/cli"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/tui"
	"github.com/harperreed/dealflow/views"
	"github.com/sirupsen/logrus"
)

const version = "0.2.0"

type command func(ctx context.Context, svc views.Services, log *logrus.Entry, args []string) error

// plain adapts commands that do not log.
func plain(fn func(context.Context, views.Services, []string) error) command {
	return func(ctx context.Context, svc views.Services, _ *logrus.Entry, args []string) error {
		return fn(ctx, svc, args)
	}
}

var crmCommands = map[string]command{
	"add-contact":     plain(cli.AddContactCommand),
	"list-contacts":   plain(cli.ListContactsCommand),
	"update-contact":  plain(cli.UpdateContactCommand),
	"delete-contact":  plain(cli.DeleteContactCommand),
	"add-deal":        plain(cli.AddDealCommand),
	"list-deals":      plain(cli.ListDealsCommand),
	"update-deal":     plain(cli.UpdateDealCommand),
	"move-deal":       cli.MoveDealCommand,
	"delete-deal":     plain(cli.DeleteDealCommand),
	"pipeline":        plain(cli.PipelineCommand),
	"add-task":        plain(cli.AddTaskCommand),
	"list-tasks":      plain(cli.ListTasksCommand),
	"update-task":     plain(cli.UpdateTaskCommand),
	"complete-task":   plain(cli.CompleteTaskCommand),
	"log-activity":    plain(cli.LogActivityCommand),
	"list-activities": plain(cli.ListActivitiesCommand),
	"dashboard":       plain(cli.DashboardCommand),
}

var vizCommands = map[string]command{
	"pipeline":  cli.VizPipelineCommand,
	"all":       cli.VizAllCommand,
	"dashboard": plain(cli.DashboardCommand),
}

var syncCommands = map[string]command{
	"contacts": cli.SyncContactsCommand,
	"calendar": cli.SyncCalendarCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/dealflow/dealflow.db)")
	backend := flag.String("backend", "", "Record store backend: sqlite, charm or badger")
	initOnly := flag.Bool("init", false, "Initialize the record store and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("dealflow version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Error: %v", err)
	}

	// MCP speaks on stdout, so every log line goes to stderr
	config.SetupLogging(cfg.LogLevel, os.Stderr)
	log := config.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// These manage credentials or the store itself and must not hold it open
	switch {
	case len(args) > 1 && args[0] == "sync" && args[1] == "init":
		if err := cli.SyncInitCommand(ctx, args[2:]); err != nil {
			logrus.Fatalf("Error: %v", err)
		}
		return
	case len(args) > 0 && args[0] == "charm":
		open := func() (*charm.Client, error) {
			charmCfg, err := charm.LoadConfig()
			if err != nil {
				return nil, err
			}
			if cfg.CharmHost != "" {
				charmCfg.Host = cfg.CharmHost
			}
			return charm.NewClient(charmCfg)
		}
		if err := charm.Command(os.Stdout, open, args[1:]); err != nil {
			logrus.Fatalf("Error: %v", err)
		}
		return
	}

	sinks := notify.Multi{notify.NewLogSink(config.Component("notify"))}
	flush := func() {}
	sentrySink, err := notify.NewSentrySink(cfg.SentryDSN, cfg.Environment, version)
	if err != nil {
		log.WithError(err).Warn("sentry disabled")
	} else if s, ok := sentrySink.(*notify.SentrySink); ok {
		sinks = append(sinks, s)
		flush = func() { s.Flush(2 * time.Second) }
	}
	defer flush()

	var recorder *notify.Recorder
	if len(args) > 0 && args[0] == "tui" {
		recorder = &notify.Recorder{}
		sinks = append(sinks, recorder)
	}

	store, err := cfg.OpenBackend()
	if err != nil {
		logrus.Fatalf("Failed to open record store: %v", err)
	}
	defer func() { _ = store.Close() }()

	log.WithFields(logrus.Fields{"backend": store.Name, "location": cfg.Location()}).Debug("record store open")

	if *initOnly {
		log.Infof("Record store initialized at %s", cfg.Location())
		return
	}

	withLog := func(name string) services.Option {
		return services.WithLogger(config.Component(name))
	}
	svc := views.Services{
		Contacts:   services.NewContactService(store, sinks, withLog("contacts")),
		Deals:      services.NewDealService(store, sinks, withLog("deals")),
		Tasks:      services.NewTaskService(store, sinks, withLog("tasks")),
		Activities: services.NewActivityService(store, sinks, withLog("activities")),
	}

	if err := run(ctx, cfg, svc, recorder, args); err != nil {
		// Fatalf exits without running defers
		_ = store.Close()
		flush()
		logrus.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, svc views.Services, recorder *notify.Recorder, args []string) error {
	name, rest := args[0], args[1:]

	switch name {
	case "mcp":
		return cli.MCPCommand(ctx, svc, version, config.Component("mcp"))
	case "tui":
		return tui.Run(ctx, svc, recorder, config.Component("tui"))
	case "web":
		addr := cfg.WebAddr
		if len(rest) > 0 {
			addr = rest[0]
		}
		return cli.WebCommand(ctx, svc, addr, config.Component("web"))
	case "crm":
		return dispatch(ctx, svc, "crm", crmCommands, rest)
	case "viz":
		return dispatch(ctx, svc, "viz", vizCommands, rest)
	case "sync":
		return dispatch(ctx, svc, "sync", syncCommands, rest)
	}

	fmt.Printf("Unknown command: %s\n\n", name)
	printUsage()
	os.Exit(1)
	return nil
}

func dispatch(ctx context.Context, svc views.Services, group string, commands map[string]command, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n", group)
		printUsage()
		os.Exit(1)
	}

	fn, ok := commands[args[0]]
	if !ok {
		fmt.Printf("Unknown %s command: %s\n\n", group, args[0])
		printUsage()
		os.Exit(1)
	}
	return fn(ctx, svc, config.Component(group), args[1:])
}

func printUsage() {
	fmt.Printf(`dealflow v%s - CRM pipeline toolkit

USAGE:
  dealflow [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       SQLite database path (default: ~/.local/share/dealflow/dealflow.db)
  --backend <name>       Record store: sqlite, charm or badger (default: sqlite)
  --init                 Initialize the record store and exit

COMMANDS:
  mcp                    Start MCP server for Claude Desktop
  tui                    Interactive pipeline board
  web [addr]             Serve the drag-and-drop board (default: 127.0.0.1:8080)
  crm                    CRM management commands
  viz                    Visualization commands
  sync                   Google sync commands
  charm                  Charm Cloud sync commands (link, status, now, auto, wipe)

CRM COMMANDS:
  dealflow crm add-contact     Add a new contact
    --first <name>              First name (required)
    --last <name>               Last name
    --email <email>             Email address
    --phone <phone>             Phone number
    --company <company>         Company name
    --title <title>             Job title
    --status <status>           active, inactive or qualified
    --tags <a,b>                Comma-separated tags

  dealflow crm list-contacts   List contacts
    --query <text>              Search by name, email or company
    --status <status>           Filter by status
    --limit <n>                 Max results (default: 50)

  dealflow crm update-contact <id>   Change contact fields
    (same flags as add-contact; only the flags given are changed)

  dealflow crm delete-contact <id>

  dealflow crm add-deal        Add a new deal
    --name <name>               Deal name (required)
    --value <amount>            Deal value (e.g. 1200.50)
    --currency <code>           Currency code (default: USD)
    --stage <stage>             lead, qualified, proposal, negotiation, closed-won, closed-lost
    --probability <0-100>       Win probability
    --close-date <YYYY-MM-DD>   Expected close date
    --contact <id>              Contact ID
    --description <text>        Notes

  dealflow crm list-deals      List deals
    --stage <stage>             Filter by stage
    --limit <n>                 Max results (default: 50)

  dealflow crm update-deal <id>   Change deal fields
    (same flags as add-deal, plus --tags <a,b> and --no-contact)

  dealflow crm move-deal <id> <stage>   Move a deal to another stage
  dealflow crm delete-deal <id>
  dealflow crm pipeline        Show the pipeline by stage

  dealflow crm add-task        Add a task
    --title <title>             Task title (required)
    --due <YYYY-MM-DD>          Due date
    --priority <p>              low, medium or high
    --contact <id>              Contact ID
    --deal <id>                 Deal ID

  dealflow crm list-tasks      List tasks grouped by due date
    --status <status>           all, pending, completed or overdue
    --priority <p>              Filter by priority
    --search <text>             Search title and description

  dealflow crm update-task <id>   Change task fields
    (add-task flags plus --status, --description, --assign, --no-contact, --no-deal)

  dealflow crm complete-task <id>

  dealflow crm log-activity    Log an activity
    --type <type>               call, email, meeting, note, demo, follow_up, other
    --subject <text>            Subject (required)
    --at <RFC3339>              When it happened (default: now)
    --duration <minutes>        Duration
    --outcome <text>            Outcome
    --contact <id>              Contact ID
    --deal <id>                 Deal ID

  dealflow crm list-activities List activities grouped by day
    --type <type>               Filter by type
    --outcome <text>            Filter by outcome

  dealflow crm dashboard       Show metrics, pipeline, tasks and activity

VIZ COMMANDS:
  dealflow viz pipeline        Generate deal pipeline graph
    --output <file>             Output file (default: stdout)
    --format <fmt>              dot, svg or png (default: dot)
  dealflow viz all             Graph of contacts, deals, tasks and activities
  dealflow viz dashboard       Text dashboard

SYNC COMMANDS:
  dealflow sync init           Authorize Google access
  dealflow sync contacts       Import Google Contacts
  dealflow sync calendar       Log recent meetings as activities
    --days <n>                  How far back to look (default: 30)

CHARM COMMANDS:
  dealflow charm link          Link this device to Charm Cloud
  dealflow charm status        Show server, auto-sync and record counts
  dealflow charm now           Sync immediately
  dealflow charm auto --enable|--disable
  dealflow charm wipe --confirm  Delete every record in the Charm store

EXAMPLES:
  # Add a deal and move it along
  dealflow crm add-deal --name "Enterprise License" --value 50000 --stage lead
  dealflow crm move-deal 1 qualified

  # Use the synced Charm store
  dealflow --backend charm crm pipeline

`, version)
}
