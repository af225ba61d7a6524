package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/luz/linker"
	"github.com/lookbusy1344/luz/object"
	"github.com/lookbusy1344/luz/objfile"
)

func newLinkCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "link <obj.lzo>...",
		Short: "Link object images into an executable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("-o is required")
			}

			imgs := make([]*object.Image, 0, len(args))
			for _, path := range args {
				img, err := objfile.ReadObject(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				imgs = append(imgs, img)
			}

			exe, err := linker.Link(imgs)
			if err != nil {
				return err
			}
			if err := objfile.WriteExecutable(output, exe); err != nil {
				return err
			}
			verbosef("linked %d object(s) -> %s (entry 0x%08X)\n", len(imgs), output, exe.Entry)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output executable file")
	return cmd
}
