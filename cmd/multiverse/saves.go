package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
)

const timeLayout = "2006-01-02 15:04"

var tableHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

// NewSavesCmd creates the saves subcommand.
func NewSavesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List saved games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireStore(); err != nil {
				return err
			}

			infos, err := a.store.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved games.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSaves(infos))
			return nil
		},
	}
}

// NewDeleteCmd creates the delete subcommand.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a saved game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot := args[0]
			if err := save.ValidateSlot(slot); err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireStore(); err != nil {
				return err
			}

			if err := a.store.DeleteSnapshot(cmd.Context(), slot); err != nil {
				return err
			}
			a.logger.Info("Save deleted", "slot", slot)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted slot %s.\n", slot)
			return nil
		},
	}
}

func renderSaves(infos []save.SlotInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SLOT", "SAVED", "WHERE", "MORALITY", "SYNC", "CHARGES", "FRAGMENTS", "IN PROGRESS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle()
		})
	for _, info := range infos {
		if info.Corrupt != "" {
			t.Row(info.Slot, info.SavedAt.Local().Format(timeLayout), "corrupt", "-", "-", "-", "-", info.Corrupt)
			continue
		}
		where := "hub"
		if info.Mode == save.ModeInUniverse {
			where = info.ActiveUniverse
		}
		t.Row(
			info.Slot,
			info.SavedAt.Local().Format(timeLayout),
			where,
			strconv.Itoa(info.Morality),
			fmt.Sprintf("%d%%", info.MemorySync),
			strconv.Itoa(info.Charges),
			strconv.Itoa(info.Fragments),
			strings.Join(info.InProgress, ", "),
		)
	}
	return t.String()
}
