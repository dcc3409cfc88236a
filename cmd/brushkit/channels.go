package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Inspect the channel registry",
	Long: `Inspect the registered brush channels.

Examples:
  brushkit channels list
  brushkit channels list --category Smoothing
  brushkit channels show radius`,
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered channels",
	RunE:  runChannelsList,
}

var channelsShowCmd = &cobra.Command{
	Use:   "show <channel-id>",
	Short: "Show one channel definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelsShow,
}

var channelCategory string

func init() {
	rootCmd.AddCommand(channelsCmd)

	channelsCmd.AddCommand(channelsListCmd)
	channelsCmd.AddCommand(channelsShowCmd)

	channelsListCmd.Flags().StringVar(&channelCategory, "category", "", "only list channels in this category")
}

func runChannelsList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tKIND\tDEFAULT\tMAPPABLE")
	fmt.Fprintln(w, "--\t----\t--------\t----\t-------\t--------")

	for _, def := range channel.All() {
		if channelCategory != "" && !strings.EqualFold(def.Category, channelCategory) {
			continue
		}
		mappable := ""
		if def.Mappable() {
			mappable = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			def.ID, def.Name, def.Category, def.Kind, formatNumbers(channels.ValueNumbers(def.Default)), mappable)
	}

	return w.Flush()
}

func runChannelsShow(cmd *cobra.Command, args []string) error {
	def, err := channel.Lookup(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", def.ID)
	fmt.Printf("Name:        %s\n", def.Name)
	fmt.Printf("Category:    %s\n", def.Category)
	if def.Description != "" {
		fmt.Printf("Description: %s\n", def.Description)
	}
	fmt.Printf("Kind:        %s\n", def.Kind)
	fmt.Printf("Subtype:     %s\n", def.Subtype)
	fmt.Printf("Range:       %g .. %g (soft %g .. %g)\n", def.Min, def.Max, def.SoftMin, def.SoftMax)
	fmt.Printf("Default:     %s\n", formatNumbers(channels.ValueNumbers(def.Default)))
	if flags := def.Flags.Names(); len(flags) > 0 {
		fmt.Printf("Flags:       %s\n", strings.Join(flags, ", "))
	}
	fmt.Printf("Mappable:    %v\n", def.Mappable())
	for _, it := range def.EnumItems {
		fmt.Printf("  %-20s %-24s %d\n", it.ID, it.Name, it.Value)
	}

	return nil
}

func formatNumbers(nums []float64) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%g", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
