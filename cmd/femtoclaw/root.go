package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/config"
	"github.com/amsamiul/femtoclaw/internal/pages"
	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/store"
	"github.com/amsamiul/femtoclaw/internal/tools"
)

var (
	flagConfig string
	flagBoard  string
	flagPort   string
	flagBaud   int
)

var rootCmd = &cobra.Command{
	Use:     "femtoclaw",
	Short:   "Flash and talk to FemtoClaw MCU boards",
	Long:    "femtoclaw is a terminal UI for compiling, flashing and configuring\nFemtoClaw firmware on ESP32-family boards and the Pico W.",
	Version: pages.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/femtoclaw/femtoclaw.json)")
	rootCmd.Flags().StringVar(&flagBoard, "board", "ESP32", "target board (ESP32, ESP32-S3, ESP32-C3, Pico W)")
	rootCmd.Flags().StringVar(&flagPort, "port", "", "preselect a serial port")
	rootCmd.Flags().IntVar(&flagBaud, "baud", 115200, "terminal baud rate")
	rootCmd.AddCommand(portsCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func runTUI() error {
	cfgPath := configPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	st := store.New(store.DefaultRoot())
	session := serial.NewSession()
	sup := tools.NewSupervisor()

	board := string(tools.ParseBoard(flagBoard))
	term := pages.NewTerminalPage(session, st)
	term.Preselect(flagPort, flagBaud)
	pageMap := map[app.PageID]app.Page{
		app.FlashPage:    pages.NewFlashPage(sup, session, st),
		app.TerminalPage: term,
		app.SettingsPage: pages.NewSettingsPage(&cfg, cfgPath, session),
		app.ChannelsPage: pages.NewChannelsPage(&cfg, cfgPath, session),
		app.HistoryPage:  pages.NewHistoryPage(st),
		app.AboutPage:    pages.NewAboutPage(),
	}

	model := app.New(pageMap, session, board, flagPort)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	sup.SetNotify(p.Send)

	defer session.Disconnect()
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
