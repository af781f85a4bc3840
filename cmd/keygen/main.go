package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-functions/internal/auth"
)

func main() {
	cmd := &cli.Command{
		Name:      "keygen",
		Usage:     "hash a function key for config.yaml",
		ArgsUsage: "[function-key]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "description",
				Value: "Generated key",
				Usage: "description stored next to the hash",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			key := cmd.Args().First()
			if key == "" {
				var err error
				if key, err = randomKey(); err != nil {
					return err
				}
			}
			printKey(cmd.Root().Writer, key, cmd.String("description"))
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// randomKey returns a new 32-byte key, hex encoded.
func randomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func printKey(w io.Writer, key, description string) {
	if w == nil {
		w = os.Stdout
	}
	keyHash := auth.HashKey(key)

	fmt.Fprintf(w, "Function Key: %s\n", key)
	fmt.Fprintf(w, "SHA-256 Hash: %s\n", keyHash)
	fmt.Fprintln(w, "\nAdd this to your config.yaml:")
	fmt.Fprintln(w, "auth:")
	fmt.Fprintln(w, "  function_keys:")
	fmt.Fprintf(w, "    - key_hash: %q\n", keyHash)
	fmt.Fprintf(w, "      description: %q\n", description)
	fmt.Fprintln(w, "\nSend the key in the x-functions-key header or the code query parameter.")
}
