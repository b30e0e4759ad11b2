package cli

import (
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newQRCmd() *cobra.Command {
	var (
		pngPath string
		size    int
	)

	cmd := &cobra.Command{
		Use:   "qr [url]",
		Short: "Print a QR code of the server URL",
		Long: `Print a QR code so the shared device can open the game without typing.
The URL defaults to --server. With --png the code is written to an image file instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := cfg.ServerURL
			if len(args) == 1 {
				target = args[0]
			}

			if pngPath != "" {
				png, err := qrcode.Encode(target, qrcode.Medium, size)
				if err != nil {
					return fmt.Errorf("failed to encode QR code: %w", err)
				}
				if err := os.WriteFile(pngPath, png, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", pngPath, err)
				}
				output(cmd).PrintMessage(fmt.Sprintf("Wrote QR code for %s to %s", target, pngPath))
				return nil
			}

			text, err := renderQR(target)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&pngPath, "png", "", "Write a PNG image to this path")
	cmd.Flags().IntVar(&size, "size", 256, "PNG size in pixels")

	return cmd
}

// renderQR renders content as a terminal-friendly QR code
func renderQR(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}
