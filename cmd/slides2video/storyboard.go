package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/slides2video/internal/source"
	"github.com/ivlev/slides2video/internal/storyboard"
)

type storyboardOptions struct {
	input  string
	out    string
	format string
	dir    string
	render *renderOptions
}

func newStoryboardCommand() *cobra.Command {
	o := &storyboardOptions{format: "yaml", dir: "storyboards", render: defaultRenderOptions()}
	cmd := &cobra.Command{
		Use:   "storyboard",
		Short: "Создать сценарий из папки с изображениями",
		Long: "Записывает список слайдов и настройки эффектов в YAML или TOML. " +
			"Файл можно отредактировать и передать в render через --storyboard.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.render.transitionSet = cmd.Flags().Changed("transition")
			path, err := o.run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+] Сценарий сохранен: %s\n", path)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.input, "input", "i", "", "Папка или файл с изображениями")
	fs.StringVarP(&o.out, "out", "o", "", "Путь к сценарию (по умолчанию: storyboards/storyboard_<время>.<format>)")
	fs.StringVar(&o.format, "format", o.format, "Формат: yaml или toml")
	fs.StringVarP(&o.render.transition, "transition", "t", o.render.transition, "Переход между слайдами")
	fs.StringVarP(&o.render.movement, "movement", "m", "", "Движение внутри слайда")
	fs.StringVar(&o.render.corner, "corner", o.render.corner, "Угол для fade")
	fs.StringVar(&o.render.quality, "quality", o.render.quality, "Качество масштабирования")
	fs.Float64Var(&o.render.duration, "duration", 0, "Общая длительность видео в секундах")
	fs.StringVarP(&o.render.audio, "audio", "a", "", "Путь к аудио")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (o *storyboardOptions) run() (string, error) {
	src, err := source.NewImageSource(o.input)
	if err != nil {
		return "", err
	}
	defer src.Close()
	if src.PageCount() == 0 {
		return "", fmt.Errorf("в %s нет изображений", o.input)
	}

	cfg, err := o.render.config()
	if err != nil {
		return "", err
	}

	path := o.out
	if path == "" {
		if err := os.MkdirAll(o.dir, 0o755); err != nil {
			return "", err
		}
		path = storyboard.GeneratePath(o.dir, "."+o.format)
	}
	paths := make([]string, 0, src.PageCount())
	for _, p := range src.Paths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		paths = append(paths, abs)
	}
	if err := storyboard.Write(storyboard.New(paths, cfg), path); err != nil {
		return "", err
	}
	return path, nil
}
