package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/patient-pulse/catalog"
)

func newDemosCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demos",
		Short: "List the demo catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Open(o.conf.Paths.Catalog)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "emotions: %s\n", strings.Join(cat.Emotions, ", "))
			for i, d := range cat.Demos {
				fmt.Fprintf(out, "%2d  %s\n", i, d.Title)
				if d.Body != "" {
					fmt.Fprintf(out, "    %s\n", d.Body)
				}
				fmt.Fprintf(out, "    audio:    %s\n    timeline: %s\n", d.Audio, d.Prosody)
			}
			return nil
		},
	}
}
