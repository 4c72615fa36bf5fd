package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/jfmyers9/mpdpanel/internal/assets"
	"github.com/jfmyers9/mpdpanel/internal/config"
	"github.com/jfmyers9/mpdpanel/internal/tui"
	"github.com/spf13/cobra"
)

var imagesAddName string

// imagesCmd represents the images command
var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage screensaver images",
	Long: `Manage the images the screensaver cycles through when MPD is idle.

Images are converted to the panel size and stored as monochrome bitmaps
in the image database. The daemon loads them at startup, so restart it
after changing the set.`,
}

var imagesAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Convert and store PNG, JPEG or GIF files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImagesAdd,
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored images",
	Args:  cobra.NoArgs,
	RunE:  runImagesList,
}

var imagesRemoveCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove stored images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImagesRemove,
}

var imagesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored image as it appears on the panel",
	Args:  cobra.ExactArgs(1),
	RunE:  runImagesShow,
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imagesCmd.AddCommand(imagesAddCmd, imagesListCmd, imagesRemoveCmd, imagesShowCmd)

	imagesAddCmd.Flags().StringVarP(&imagesAddName, "name", "n", "", "Image name (default: file name without extension; single file only)")
}

// openImageStore opens the configured image database, creating it if needed
func openImageStore() (*assets.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Screensaver.DB), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := assets.NewStore(cfg.Screensaver.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image store: %w", err)
	}
	return store, cfg, nil
}

func runImagesAdd(cmd *cobra.Command, args []string) error {
	if imagesAddName != "" && len(args) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	store, cfg, err := openImageStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	w, h := cfg.Display.Width, cfg.Display.Height

	for _, path := range args {
		name := imagesAddName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		bitmap, err := assets.Decode(f, w, h)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if _, err := store.Add(ctx, name, w, h, bitmap); err != nil {
			if errors.Is(err, assets.ErrExists) {
				return fmt.Errorf("%s: an image named %q already exists", path, name)
			}
			return err
		}
		fmt.Printf("✓ Added %s as %q (%dx%d, %s)\n", path, name, w, h, humanize.Bytes(uint64(len(bitmap))))
	}

	return nil
}

func runImagesList(cmd *cobra.Command, args []string) error {
	store, cfg, err := openImageStore()
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Println("No images stored.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tBYTES\tADDED\t")
	for _, img := range images {
		size := fmt.Sprintf("%dx%d", img.Width, img.Height)
		if img.Width != cfg.Display.Width || img.Height != cfg.Display.Height {
			size += " (skipped)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", img.Name, size, humanize.Bytes(uint64(img.Size())), humanize.Time(img.AddedAt))
	}
	return tw.Flush()
}

func runImagesRemove(cmd *cobra.Command, args []string) error {
	store, _, err := openImageStore()
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range args {
		if err := store.Remove(context.Background(), name); err != nil {
			return err
		}
		fmt.Printf("✓ Removed %q\n", name)
	}
	return nil
}

func runImagesShow(cmd *cobra.Command, args []string) error {
	store, _, err := openImageStore()
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := store.List(context.Background())
	if err != nil {
		return err
	}
	for _, img := range images {
		if img.Name == args[0] {
			fmt.Println(tui.HalfBlocks(assets.Expand(img.Bitmap, img.Width, img.Height)))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", assets.ErrNotFound, args[0])
}
