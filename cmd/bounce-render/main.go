package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bounceaudio/bounce"
)

func main() {
	outPath := flag.String("o", "", "Filename where to write the rendered audio. Defaults to the score filename with a .wav extension.")
	pcm16 := flag.Bool("i", false, "Output 16-bit integer samples, instead of floats.")
	rawOut := flag.Bool("r", false, "Write a raw sample dump instead of a .wav container.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 1 || *help {
		flag.Usage()
		os.Exit(0)
	}
	input := flag.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read score file: %v\n", err)
		os.Exit(1)
	}
	score, err := bounce.ParseScore(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse score file: %v\n", err)
		os.Exit(1)
	}
	buffer, err := score.Render()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rendering failed: %v\n", err)
		os.Exit(1)
	}
	var out []byte
	if *rawOut {
		out, err = bounce.Raw(buffer, *pcm16)
	} else {
		out, err = bounce.Wav(buffer, score.Time.SampleRate, *pcm16)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding failed: %v\n", err)
		os.Exit(1)
	}
	path := *outPath
	if path == "" {
		ext := ".wav"
		if *rawOut {
			ext = ".raw"
		}
		path = strings.TrimSuffix(strings.TrimSuffix(input, ".yml"), ".yaml") + ext
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "could not write output file: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Render a .yml score into an audio file.")
	fmt.Fprintln(os.Stderr, "Usage: bounce-render [flags] score.yml")
	flag.PrintDefaults()
}
