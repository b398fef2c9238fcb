package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aouyang1/photobooth/compose"
	"github.com/aouyang1/photobooth/store"
	"github.com/aouyang1/photobooth/util"
	"github.com/spf13/cobra"
)

var (
	templateFlag     string
	outFlag          string
	logoFlag         string
	logoScaleFlag    int
	logoPositionFlag string
	captionFlag      string
	backgroundFlag   string
)

var composeCmd = &cobra.Command{
	Use:   "compose [flags] files...",
	Short: "Compose photos into a print without a running booth",
	Long: `Compose lays out existing photos the way the booth does. Files are ordered by
their EXIF capture time, falling back to the file modification time.`,
	Args: cobra.RangeArgs(1, store.MaxShots),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := store.DefaultBoothSettings()
		opts := compose.Options{
			Template:        templateFlag,
			BackgroundColor: backgroundFlag,
			FrameColor:      defaults.FrameColor,
			AccentColor:     defaults.AccentColor,
			Caption:         captionFlag,
			LogoScale:       logoScaleFlag,
			LogoPosition:    logoPositionFlag,
		}
		if logoFlag != "" {
			logo, err := os.ReadFile(logoFlag)
			if err != nil {
				return fmt.Errorf("read logo: %w", err)
			}
			opts.Logo = logo
		}
		return composeFiles(cmd.Context(), args, opts, outFlag)
	},
}

func init() {
	defaults := store.DefaultBoothSettings()
	composeCmd.Flags().StringVarP(&templateFlag, "template", "t", defaults.Template, "Layout: strip, grid or single")
	composeCmd.Flags().StringVarP(&outFlag, "out", "o", "photobooth.png", "Output PNG path")
	composeCmd.Flags().StringVar(&logoFlag, "logo", "", "Logo PNG or JPEG to overlay")
	composeCmd.Flags().IntVar(&logoScaleFlag, "logo-scale", defaults.LogoScale, "Logo size in percent of a quarter of the print width")
	composeCmd.Flags().StringVar(&logoPositionFlag, "logo-position", defaults.LogoPosition, "top-left, top-right, bottom-left, bottom-right or center")
	composeCmd.Flags().StringVar(&captionFlag, "caption", "", "Caption drawn at the bottom of the print")
	composeCmd.Flags().StringVar(&backgroundFlag, "background", defaults.BackgroundColor, "Background color as #rgb or #rrggbb")
}

// composeFiles reads paths in capture order and writes the composite to out.
func composeFiles(ctx context.Context, paths []string, opts compose.Options, out string) error {
	if !util.Templates.Contains(opts.Template) {
		return fmt.Errorf("%w: %s", compose.ErrUnknownTemplate, opts.Template)
	}
	if !util.LogoPositions.Contains(opts.LogoPosition) {
		return fmt.Errorf("unknown logo position: %s", opts.LogoPosition)
	}

	sorted := util.SortByTakenAt(paths)
	frames := make([][]byte, 0, len(sorted))
	for _, p := range sorted {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		frames = append(frames, data)
	}

	png, err := compose.Compose(ctx, frames, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	slog.Info("composite written", "out", out, "template", opts.Template, "frames", len(frames))
	return nil
}
