package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivlev/slides2video/internal/effects"
)

func newEffectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "effects",
		Short: "Список переходов и движений",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), effectsTable())
			return nil
		},
	}
}

func effectsTable() string {
	title := cases.Title(language.Und)
	display := func(name string) string {
		return title.String(strings.ReplaceAll(name, "-", " "))
	}

	var rows [][]string
	for _, t := range effects.Transitions() {
		rows = append(rows, []string{t.String(), display(t.String()), "transition", t.Description()})
	}
	for _, m := range effects.Movements() {
		if m == effects.MovementNone {
			continue
		}
		rows = append(rows, []string{m.String(), display(m.String()), "movement", m.Description()})
	}
	return renderTable([]string{"Flag", "Name", "Kind", "Description"}, rows, nil)
}
