package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/patient-pulse/tui"
)

func newPlayCmd(o *options) *cobra.Command {
	var demo int
	c := &cobra.Command{
		Use:   "play",
		Short: "Play a demo in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// the terminal belongs to the player from here on
			if err := os.MkdirAll(o.conf.Paths.Outputs, 0o755); err != nil {
				return err
			}
			logPath := filepath.Join(o.conf.Paths.Outputs, "play.log")
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("play log: %w", err)
			}
			defer f.Close()
			o.log.SetOutput(f)

			a, err := build(o.conf, o.log)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.pipeline.Credential(cmd.Context(), "", nil, "")
			if err != nil {
				return err
			}
			m := tui.New(a.mgr, token, demo, o.conf.Playback.Tick, o.conf.Playback.Tail, o.log.WithField("component", "tui"))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	c.Flags().IntVarP(&demo, "demo", "d", 0, "demo to start on (index from the demos command)")
	return c
}
