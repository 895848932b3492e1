// Command ewfinfo prints the metadata and media values of an acquired
// evidence segment set, the way ewftools' ewfinfo does against a real
// EWF image, but speaking only to the ewf.Handle API (spec §9.4).
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/evidentiary/ewfgo"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ewfinfo: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "ewfinfo",
		Usage:     "print metadata and media values from an EWF segment set",
		ArgsUsage: "<base-path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log section-level detail while opening",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected exactly one argument: the segment set's base path", 1)
			}
			return run(c.Args().First(), c.Bool("verbose"))
		},
	}
}

func run(basePath string, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	h, err := ewf.Open(basePath, ewf.FileOpener{}, ewf.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("opening segment set: %w", err)
	}
	defer h.Close()

	printMediaValues(h)
	printHeaderValues(h)
	printDigest(h)
	return nil
}

func printMediaValues(h *ewf.Handle) {
	mv := h.MediaValues()
	fmt.Printf("Media size:\t\t%d bytes\n", h.GetMediaSize())
	fmt.Printf("Bytes per sector:\t%d\n", mv.BytesPerSector)
	fmt.Printf("Sectors per chunk:\t%d\n", mv.ChunkSectors)
	fmt.Printf("Chunk count:\t\t%d\n", h.GetNumberOfChunks())
}

func printHeaderValues(h *ewf.Handle) {
	v := h.HeaderValues()
	if v == nil {
		return
	}
	fmt.Printf("Case number:\t\t%s\n", v.CaseNumber)
	fmt.Printf("Evidence number:\t%s\n", v.EvidenceNumber)
	fmt.Printf("Examiner name:\t\t%s\n", v.ExaminerName)
	fmt.Printf("Acquisition date:\t%s\n", v.AcquisitionDate)
}

var zeroMD5 [16]byte
var zeroSHA1 [20]byte

func printDigest(h *ewf.Handle) {
	d := h.Digest()
	if d == nil {
		return
	}
	if d.MD5 != zeroMD5 {
		fmt.Printf("MD5 hash:\t\t%s\n", hex.EncodeToString(d.MD5[:]))
	}
	if d.SHA1 != zeroSHA1 {
		fmt.Printf("SHA1 hash:\t\t%s\n", hex.EncodeToString(d.SHA1[:]))
	}
}
