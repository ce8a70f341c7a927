// orc is the operator CLI: it initialises projects, manages rooms and
// their git worktrees, launches agents in tmux windows and passes
// messages between rooms.
package main

import (
	"fmt"
	"os"

	"github.com/user/orc/internal/backend"
	"github.com/user/orc/internal/config"
	"github.com/user/orc/internal/project"
	"github.com/user/orc/internal/service"
	"github.com/user/orc/internal/tmux"
	"github.com/user/orc/internal/universe"
)

const usage = `usage: orc <command> [args]

Commands:
  init                      initialise the current repository
  add <room>                create a room with its own git worktree
  rooms                     list rooms and their agent status
  attach [room]             start the room's agent and attach to it
  tell <room> <message>     type a message at a room's agent
  broadcast <message>       type a message at every live agent
  rm <room>                 remove a room, its window and worktree
  clean                     drop read messages and finished molecules
  projects [add|remove|list] manage the project registry
  send <project> <room> <message> deliver an inbox message anywhere
  serve                     run the dashboard server in the foreground
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return cmdInit(rest)
	case "add":
		return cmdAdd(rest)
	case "rooms":
		return cmdRooms(rest)
	case "attach":
		return cmdAttach(rest)
	case "tell":
		return cmdTell(rest)
	case "broadcast":
		return cmdBroadcast(rest)
	case "rm":
		return cmdRemove(rest)
	case "clean":
		return cmdClean(rest)
	case "projects":
		return cmdProjects(rest)
	case "send":
		return cmdSend(rest)
	case "serve":
		return cmdServe(rest)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q; run \"orc help\"", cmd)
	}
}

// loadConfig reads defaults and the config file. CLI commands never
// consume the daemon's command-line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return cfg, nil
}

func newService(cfg *config.Config) (*service.Service, error) {
	backends, err := backend.NewRegistry(cfg.BackendsDir)
	if err != nil {
		return nil, err
	}
	return &service.Service{
		Tmux:           tmux.NewSession(cfg.TmuxSession),
		Universe:       universe.New(cfg.ProjectsDir),
		Backends:       backends,
		DefaultBackend: cfg.DefaultBackend,
		Sandbox:        cfg.Sandbox,
		StartupDelay:   service.DefaultStartupDelay,
	}, nil
}

// currentProject resolves the project enclosing the working directory
// and requires it to be orc-initialised.
func currentProject() (*project.Project, error) {
	root := project.FindRoot("")
	if root == "" {
		return nil, fmt.Errorf("not inside a git repository")
	}
	p := project.New(root)
	if !p.Initialized() {
		return nil, fmt.Errorf("project not initialised; run \"orc init\" first")
	}
	return p, nil
}
