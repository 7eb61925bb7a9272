package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coreman2200/huestream/internal/anim"
	"github.com/coreman2200/huestream/internal/color"
)

func newFramesCmd() *cobra.Command {
	var resolution int
	c := &cobra.Command{
		Use:   "frames",
		Short: "Print the frames of one hue rotation without opening a device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resolution < 1 {
				return fmt.Errorf("invalid resolution: %d", resolution)
			}
			return printFrames(cmd.OutOrStdout(), resolution)
		},
	}
	c.Flags().IntVar(&resolution, "resolution", anim.DefaultResolution, "hue steps per rotation")
	return c
}

func printFrames(w io.Writer, res int) error {
	if _, err := fmt.Fprintf(w, "%4s %8s %4s %4s %4s %s\n", "step", "hue", "r", "g", "b", "hex"); err != nil {
		return err
	}
	for i, f := range color.Rotation(res) {
		h := float64(i) / float64(res)
		if _, err := fmt.Fprintf(w, "%4d %8.4f %4d %4d %4d %s\n", i, h, f.R, f.G, f.B, f); err != nil {
			return err
		}
	}
	return nil
}
