package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artpar/brushkit/bootstrap"
	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <preset>",
	Short: "Print the resolved channels of a preset",
	Long: `Resolve a preset through its inheritance chain and print the result.

Tool overrides from the config sit below the root preset; every preset
on the way down overrides what it sets unless the channel inherits.

Examples:
  brushkit resolve "Clay Brush"
  brushkit resolve "Clay Brush" --yaml
  brushkit resolve "Clay Brush" --commands`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var evalCmd = &cobra.Command{
	Use:   "eval <preset> <channel>",
	Short: "Evaluate a resolved channel against input signals",
	Long: `Evaluate one channel of a resolved preset with its input mappings
applied to the given pen signals.

Examples:
  brushkit eval "Clay Brush" strength --pressure 0.5
  brushkit eval "Clay Brush" radius --pressure 1 --speed 0.3`,
	Args: cobra.ExactArgs(2),
	RunE: runEval,
}

var (
	resolveYAML     bool
	resolveCommands bool
	signals         channel.InputSignals
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(evalCmd)

	resolveCmd.Flags().BoolVar(&resolveYAML, "yaml", false, "print the resolved set as a YAML document")
	resolveCmd.Flags().BoolVar(&resolveCommands, "commands", false, "print the stroke command list instead")

	evalCmd.Flags().Float64Var(&signals.Pressure, "pressure", 1, "pen pressure (0..1)")
	evalCmd.Flags().Float64Var(&signals.XTilt, "x-tilt", 0, "pen tilt along x (-1..1)")
	evalCmd.Flags().Float64Var(&signals.YTilt, "y-tilt", 0, "pen tilt along y (-1..1)")
	evalCmd.Flags().Float64Var(&signals.Angle, "angle", 0, "stroke angle (0..1)")
	evalCmd.Flags().Float64Var(&signals.Speed, "speed", 0, "stroke speed (0..1)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		p, err := a.Brush.FindPreset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("preset not found: %s", args[0])
		}

		if resolveCommands {
			list, err := a.Brush.BuildCommands(ctx, p.ID)
			if err != nil {
				return err
			}
			defer list.Free()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tTOOL\tCHANNELS")
			fmt.Fprintln(w, "-----\t----\t--------")
			for _, c := range list.Commands {
				fmt.Fprintf(w, "%s\t%s\t%d\n", c.Stage, c.Tool, c.Channels.Len())
			}
			return w.Flush()
		}

		set, _, err := a.Brush.Resolve(ctx, p.ID)
		if err != nil {
			return err
		}
		defer set.Free()

		if resolveYAML {
			data, err := channels.MarshalYAML(set)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHANNEL\tVALUE\tFLAGS")
		fmt.Fprintln(w, "-------\t-----\t-----")
		for _, ch := range set.Channels() {
			cd := channels.ChannelDocument(ch)
			fmt.Fprintf(w, "%s\t%s\t%v\n", cd.ID, formatNumbers(cd.Value), cd.Flags)
		}
		return w.Flush()
	})
}

func runEval(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		p, err := a.Brush.FindPreset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("preset not found: %s", args[0])
		}
		ev, err := a.Brush.Evaluate(ctx, p.ID, args[1], signals)
		if err != nil {
			return err
		}

		fmt.Printf("Channel: %s\n", ev.Channel)
		fmt.Printf("Base:    %s\n", formatNumbers(channels.ValueNumbers(ev.Base)))
		fmt.Printf("Value:   %s\n", formatNumbers(channels.ValueNumbers(ev.Value)))
		return nil
	})
}
