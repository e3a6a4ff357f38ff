package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltdeck/voltdeck/internal/config"
	"github.com/voltdeck/voltdeck/internal/session"
	"github.com/voltdeck/voltdeck/internal/tui"
	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("voltdeck " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout()
		}
	}

	cfg, stateDir, err := loadConfig()
	if err != nil {
		return err
	}

	c := client.New(cfg.APIURL, "")
	store := session.New(stateDir, c)
	store.Restore()

	app := tui.NewApp(c, store)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Session changes (login, logout) reroute the running UI.
	store.Subscribe(func(s *domain.Session) {
		p.Send(tui.SessionMsg{Session: s})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func loadConfig() (*config.Config, string, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return nil, "", err
	}
	path, err := config.DefaultPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, stateDir, nil
}

func runLogout() error {
	cfg, stateDir, err := loadConfig()
	if err != nil {
		return err
	}
	store := session.New(stateDir, client.New(cfg.APIURL, ""))
	store.Restore()
	if !store.Active() {
		fmt.Println("Already logged out.")
		return nil
	}
	store.Logout()
	fmt.Println("Logged out.")
	return nil
}

func printHelp() {
	fmt.Println(`voltdeck — terminal client for your energy monitoring service

Usage:
  voltdeck            open the dashboard
  voltdeck logout     clear your session
  voltdeck version    show version

Environment:
  VOLTDECK_API_URL    override the API base URL
  (also configurable in ~/.voltdeck/config.yaml)`)
}
