package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artpar/brushkit/app"
	"github.com/artpar/brushkit/bootstrap"
	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/domain/preset"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage brush presets",
	Long: `Manage stored brush presets.

Presets are channel documents attached to a scope (tool, brush or
command) and optionally to a parent preset they inherit from.

Examples:
  brushkit presets list
  brushkit presets show "Clay Brush"
  brushkit presets import clay-tool.yaml --scope tool --tool clay
  brushkit presets import clay-brush.yaml --scope brush --tool clay --parent "Clay Tool"
  brushkit presets export "Clay Brush" > clay-brush.yaml
  brushkit presets delete "Clay Brush"`,
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all presets",
	RunE:  runPresetsList,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <preset>",
	Short: "Show preset details and stored channels",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsShow,
}

var presetsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Store a channel document as a new preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsImport,
}

var presetsExportCmd = &cobra.Command{
	Use:   "export <preset>",
	Short: "Print the stored channels as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsExport,
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <preset>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsDelete,
}

var (
	presetName   string
	presetScope  string
	presetTool   string
	presetParent string
)

func init() {
	rootCmd.AddCommand(presetsCmd)

	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsShowCmd)
	presetsCmd.AddCommand(presetsImportCmd)
	presetsCmd.AddCommand(presetsExportCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)

	presetsImportCmd.Flags().StringVar(&presetName, "name", "", "preset name (default: document name)")
	presetsImportCmd.Flags().StringVar(&presetScope, "scope", "brush", "preset scope: tool, brush or command")
	presetsImportCmd.Flags().StringVar(&presetTool, "tool", "", "tool kind (required)")
	presetsImportCmd.Flags().StringVar(&presetParent, "parent", "", "parent preset id or name")
	presetsImportCmd.MarkFlagRequired("tool")
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		presets, err := a.Brush.ListPresets(ctx)
		if err != nil {
			return fmt.Errorf("failed to list presets: %w", err)
		}

		if len(presets) == 0 {
			fmt.Println("No presets found.")
			fmt.Println()
			fmt.Println("Import one with: brushkit presets import <file.yaml> --scope tool --tool clay")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSCOPE\tTOOL\tPARENT\tUPDATED")
		fmt.Fprintln(w, "--\t----\t-----\t----\t------\t-------")
		for _, p := range presets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Name, p.Scope, p.Tool, p.ParentID, p.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	})
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		p, err := a.Brush.FindPreset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("preset not found: %s", args[0])
		}
		set, _, err := a.Brush.LoadSet(ctx, p.ID)
		if err != nil {
			return err
		}
		defer set.Free()

		fmt.Printf("ID:       %s\n", p.ID)
		fmt.Printf("Name:     %s\n", p.Name)
		fmt.Printf("Scope:    %s\n", p.Scope)
		fmt.Printf("Tool:     %s\n", p.Tool)
		if p.ParentID != "" {
			fmt.Printf("Parent:   %s\n", p.ParentID)
		}
		fmt.Printf("Channels: %d\n", set.Len())
		fmt.Printf("Created:  %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:  %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))

		if set.Len() > 0 {
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, ch := range set.Channels() {
				cd := channels.ChannelDocument(ch)
				fmt.Fprintf(w, "  %s\t%s\t%v\n", cd.ID, formatNumbers(cd.Value), cd.Flags)
			}
			w.Flush()
		}
		return nil
	})
}

func runPresetsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	scope, err := preset.ParseScope(presetScope)
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		set, err := channels.UnmarshalYAML(data, a.Cache)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		defer set.Free()

		name := presetName
		if name == "" {
			name = set.Name
		}

		parentID := ""
		if presetParent != "" {
			parent, err := a.Brush.FindPreset(ctx, presetParent)
			if err != nil {
				return fmt.Errorf("parent preset not found: %s", presetParent)
			}
			parentID = parent.ID
		}

		p, err := a.Brush.CreatePreset(ctx, app.CreatePresetInput{
			Name:     name,
			Scope:    scope,
			Tool:     presetTool,
			ParentID: parentID,
			Channels: set,
		})
		if err != nil {
			return fmt.Errorf("failed to import preset: %w", err)
		}

		fmt.Printf("Preset imported: %s (%s, %d channels)\n", p.Name, p.ID, set.Len())
		return nil
	})
}

func runPresetsExport(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		p, err := a.Brush.FindPreset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("preset not found: %s", args[0])
		}
		set, _, err := a.Brush.LoadSet(ctx, p.ID)
		if err != nil {
			return err
		}
		defer set.Free()

		data, err := channels.MarshalYAML(set)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	})
}

func runPresetsDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *bootstrap.App) error {
		p, err := a.Brush.FindPreset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("preset not found: %s", args[0])
		}
		if err := a.Brush.DeletePreset(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete preset: %w", err)
		}
		fmt.Printf("Preset deleted: %s\n", p.Name)
		return nil
	})
}
