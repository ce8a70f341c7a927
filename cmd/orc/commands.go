package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/user/orc/internal/project"
	"github.com/user/orc/internal/service"
	"github.com/user/orc/internal/tmux"
	"github.com/user/orc/internal/universe"
)

func cmdInit(args []string) error {
	flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
	force := flags.Bool("force", false, "re-initialise an already initialised project")
	if err := flags.Parse(args); err != nil {
		return err
	}

	root := project.FindRoot("")
	if root == "" {
		return fmt.Errorf("not inside a git repository")
	}
	p := project.New(root)
	if err := p.Init(*force); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Registration is best-effort: re-running init on a registered
	// project is not an error.
	if _, err := universe.New(cfg.ProjectsDir).Add(root, ""); err == nil {
		fmt.Printf("registered project %s\n", p.Name)
	}
	fmt.Printf("initialised %s with room %s\n", p.Name, project.MainRoom)
	return nil
}

func cmdAdd(args []string) error {
	flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
	role := flags.String("role", "worker", "role prompt for the room's agent")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: orc add <room> [--role role]")
	}
	name := flags.Arg(0)

	p, err := currentProject()
	if err != nil {
		return err
	}
	if err := p.AddRoom(name, *role); err != nil {
		return err
	}
	fmt.Printf("created room %s (worktree %s)\n", name, p.RoomCwd(name))
	return nil
}

func cmdRooms(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: orc rooms")
	}
	p, err := currentProject()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	infos := svc.Rooms(p.Root)
	if len(infos) == 0 {
		fmt.Println("no rooms; run \"orc init\"")
		return nil
	}
	fmt.Printf("%-16s %-14s %-10s %-6s %s\n", "ROOM", "ROLE", "STATUS", "TMUX", "INBOX")
	for _, info := range infos {
		window := "-"
		if info.WindowAlive {
			window = "live"
		}
		inbox := fmt.Sprintf("%d", info.InboxCount)
		if info.UnreadCount > 0 {
			inbox = fmt.Sprintf("%d (%d unread)", info.InboxCount, info.UnreadCount)
		}
		fmt.Printf("%-16s %-14s %-10s %-6s %s\n", info.Name, info.Role, info.Status, window, inbox)
	}
	return nil
}

func cmdAttach(args []string) error {
	flags := pflag.NewFlagSet("attach", pflag.ContinueOnError)
	role := flags.String("role", "", "role for a room created on demand")
	model := flags.String("model", "", "model override for this launch")
	message := flags.String("message", "", "message typed at the agent once it starts")
	if err := flags.Parse(args); err != nil {
		return err
	}
	roomName := project.MainRoom
	switch flags.NArg() {
	case 0:
	case 1:
		roomName = flags.Arg(0)
	default:
		return fmt.Errorf("usage: orc attach [room]")
	}

	p, err := currentProject()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	if err := svc.AttachRoom(p.Root, roomName, service.AttachOptions{
		Role:    *role,
		Model:   *model,
		Message: *message,
	}); err != nil {
		return err
	}

	argv := svc.Tmux.AttachCommand(tmux.WindowName(p.Name, roomName))
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func cmdTell(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: orc tell <room> <message>")
	}
	p, err := currentProject()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess := tmux.NewSession(cfg.TmuxSession)
	delivered, err := p.Tell(sess, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("room %q has no live agent; run \"orc attach %s\" first", args[0], args[0])
	}
	return nil
}

func cmdBroadcast(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: orc broadcast <message>")
	}
	p, err := currentProject()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	delivered, err := p.TellAll(tmux.NewSession(cfg.TmuxSession), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(delivered) == 0 {
		fmt.Println("no live agents")
		return nil
	}
	fmt.Printf("delivered to %s\n", strings.Join(delivered, ", "))
	return nil
}

func cmdRemove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: orc rm <room>")
	}
	p, err := currentProject()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := p.RemoveRoom(tmux.NewSession(cfg.TmuxSession), args[0]); err != nil {
		return err
	}
	fmt.Printf("removed room %s\n", args[0])
	return nil
}

func cmdClean(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: orc clean")
	}
	p, err := currentProject()
	if err != nil {
		return err
	}

	var messages, molecules int
	for _, name := range p.Rooms() {
		m, mol, err := p.Room(name).Clean()
		if err != nil {
			return fmt.Errorf("clean %s: %w", name, err)
		}
		messages += m
		molecules += mol
	}
	fmt.Printf("dropped %d read messages and %d finished molecules\n", messages, molecules)
	return nil
}

func cmdProjects(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	u := universe.New(cfg.ProjectsDir)

	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		known := u.All()
		if len(known) == 0 {
			fmt.Println("no projects registered")
			return nil
		}
		names := make([]string, 0, len(known))
		for name := range known {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-20s %s\n", name, known[name])
		}
		return nil
	case "add":
		flags := pflag.NewFlagSet("projects add", pflag.ContinueOnError)
		name := flags.String("name", "", "registry name (default: directory name)")
		if err := flags.Parse(args); err != nil {
			return err
		}
		path := "."
		if flags.NArg() > 0 {
			path = flags.Arg(0)
		}
		registered, err := u.Add(path, *name)
		if err != nil {
			return err
		}
		fmt.Printf("registered project %s\n", registered)
		return nil
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: orc projects remove <name>")
		}
		if err := u.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("unregistered project %s\n", args[0])
		return nil
	default:
		return fmt.Errorf("unknown projects subcommand %q", sub)
	}
}

func cmdSend(args []string) error {
	flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
	from := flags.String("from", "cli", "sender recorded on the message")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 3 {
		return fmt.Errorf("usage: orc send <project> <room> <message>")
	}
	rest := flags.Args()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	u := universe.New(cfg.ProjectsDir)
	if err := u.SendMessage(*from, rest[0], rest[1], strings.Join(rest[2:], " ")); err != nil {
		return err
	}
	fmt.Printf("sent to %s/%s\n", rest[0], rest[1])
	return nil
}
