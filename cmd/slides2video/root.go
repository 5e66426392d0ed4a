package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	opts := defaultRenderOptions()

	rootCmd := &cobra.Command{
		Use:           "slides2video",
		Short:         "Собирает видео-слайдшоу из PDF или папки с изображениями",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Без подкоманды работает как render, как и прежний CLI.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}
	addRenderFlags(rootCmd.Flags(), opts)

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newEffectsCommand())
	rootCmd.AddCommand(newStoryboardCommand())

	return rootCmd
}
