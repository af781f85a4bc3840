package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-functions/pkg/client"
)

func main() {
	cmd := &cli.Command{
		Name:      "client-image",
		Usage:     "convert an image to grayscale with the transform_image function",
		ArgsUsage: "[image]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   client.DefaultBaseURL,
				Usage:   "base URL of the functions",
				Sources: cli.EnvVars("FUNCS_URL"),
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "function key",
				Sources: cli.EnvVars("FUNCS_KEY"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "where to write the grayscale PNG (default <image>_gray.png)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in := cmd.Args().First()
			if in == "" {
				in = "image.png"
			}
			out := cmd.String("output")
			if out == "" {
				out = grayPath(in)
			}

			c := client.New(cmd.String("url"), client.WithFunctionKey(cmd.String("key")))
			if err := transform(ctx, c, in, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", out)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func transform(ctx context.Context, c *client.Client, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	gray, err := c.TransformImage(ctx, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, gray, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// grayPath derives the output name from the input, e.g. cat.jpg -> cat_gray.png.
func grayPath(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_gray.png"
}
