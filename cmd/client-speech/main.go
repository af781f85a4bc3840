package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/polyglot-functions/internal/audio"
	"github.com/tjfontaine/polyglot-functions/pkg/client"
)

func main() {
	cmd := &cli.Command{
		Name:      "client-speech",
		Usage:     "transcribe an audio file with the speech_to_text function",
		ArgsUsage: "[audio]",
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
				Name:  "ffmpeg",
				Value: "ffmpeg",
				Usage: "ffmpeg binary used to resample the audio",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in := cmd.Args().First()
			if in == "" {
				in = "speech.wav"
			}

			tmp, err := os.CreateTemp("", "speech-*.wav")
			if err != nil {
				return err
			}
			tmp.Close()
			defer os.Remove(tmp.Name())

			if err := resample(ctx, cmd.String("ffmpeg"), in, tmp.Name()); err != nil {
				return err
			}
			wav, err := os.ReadFile(tmp.Name())
			if err != nil {
				return fmt.Errorf("read resampled audio: %w", err)
			}

			c := client.New(cmd.String("url"), client.WithFunctionKey(cmd.String("key")))
			text, err := transcribe(ctx, c, wav)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, text)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resampleArgs converts any input ffmpeg can read to 16 kHz mono s16 WAV.
func resampleArgs(in, out string) []string {
	return []string{
		"-i", in,
		"-ar", "16000",
		"-ac", "1",
		"-sample_fmt", "s16",
		"-y", "-hide_banner", "-loglevel", "error",
		out,
	}
}

func resample(ctx context.Context, ffmpeg, in, out string) error {
	cmd := exec.CommandContext(ctx, ffmpeg, resampleArgs(in, out)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("resample %s: %w", in, err)
	}
	return nil
}

// transcribe strips the RIFF framing from wav and sends the PCM.
func transcribe(ctx context.Context, c *client.Client, wav []byte) (string, error) {
	format, pcm, err := audio.SplitWAV(wav)
	if err != nil {
		return "", err
	}
	if !format.IsSpeechPCM() {
		return "", errors.New("audio is not 16 kHz mono 16-bit PCM")
	}
	return c.SpeechToText(ctx, pcm)
}
