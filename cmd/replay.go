package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

func newReplayCmd(o *options) *cobra.Command {
	var (
		demo int
		at   []float64
		step float64
	)
	c := &cobra.Command{
		Use:   "replay",
		Short: "Print the frame for each playback time as JSON lines",
		Example: "  patient-pulse replay --demo 0 --at 0,2.5,3\n" +
			"  patient-pulse replay --demo 1 --step 0.5",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(at) == 0 && step <= 0 {
				return errors.New("replay: give --at times or a positive --step")
			}
			// frames are printed settled; there is no one to watch the animation
			o.conf.Wheel.Transition = 0
			a, err := build(o.conf, o.log)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.pipeline.Credential(cmd.Context(), "", nil, "")
			if err != nil {
				return err
			}
			info, err := a.mgr.Select(demo, token)
			if err != nil {
				return err
			}
			if info, err = a.mgr.Wait(cmd.Context(), info.ID); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, t := range replayTimes(at, step, info.End) {
				f, err := a.mgr.Tick(t)
				if err != nil {
					return err
				}
				if err := enc.Encode(f); err != nil {
					return err
				}
			}
			return nil
		},
	}
	c.Flags().IntVarP(&demo, "demo", "d", 0, "demo index")
	c.Flags().Float64SliceVar(&at, "at", nil, "playback times in seconds")
	c.Flags().Float64Var(&step, "step", 0, "sample from 0 to the last line every step seconds")
	return c
}

// replayTimes returns at when given, otherwise 0, step, 2*step ... up to end.
func replayTimes(at []float64, step, end float64) []float64 {
	if len(at) > 0 {
		return at
	}
	var out []float64
	for i := 0; ; i++ {
		t := float64(i) * step
		if t > end {
			break
		}
		out = append(out, t)
	}
	return out
}
