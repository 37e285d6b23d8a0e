package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"devcoach/internal/tui"
)

func newConsoleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "ask questions in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// console logging would draw over the UI
			cfg, err := loadConfig(*configPath, false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			a.startIndexing(ctx)
			_, err = tea.NewProgram(tui.New(a.chat, a.retriever), tea.WithAltScreen()).Run()
			return err
		},
	}
}
