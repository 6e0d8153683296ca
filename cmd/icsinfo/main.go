package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	ics "github.com/anntzer/go-libics"
	"github.com/anntzer/go-libics/engine"
)

func main() {
	var (
		libPath     = flag.String("lib", "libics.wasm", "Path to the libics wasm binary")
		showHistory = flag.Bool("history", false, "Print history entries")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: icsinfo [-lib libics.wasm] [-history] <file.ics>...")
		fmt.Fprintln(os.Stderr, "       icsinfo [-lib libics.wasm] -i <file.ics>")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*libPath, flag.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*libPath, *showHistory, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(libPath string, showHistory bool, paths []string) error {
	ctx := context.Background()

	eng, err := engine.New(ctx, engine.Config{LibraryPath: libPath})
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	defer eng.Close(ctx)

	for i, path := range paths {
		if i > 0 {
			fmt.Println()
		}
		if err := describe(ctx, eng, path, showHistory); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func describe(ctx context.Context, eng *engine.Engine, path string, showHistory bool) error {
	version, err := eng.Version(ctx, path)
	if err != nil {
		return err
	}

	f, err := ics.Open(ctx, eng, path, ics.Read)
	if err != nil {
		return err
	}
	defer f.Close(ctx)

	desc, err := f.Descriptor(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s (ICS version %d)\n", path, version)
	fmt.Printf("Data type: %s\n", desc.DataType)
	if count, err := desc.ElementCount("icsinfo"); err == nil {
		fmt.Printf("Elements: %d (%d bytes)\n", count, count*desc.DataType.Size())
	}
	fmt.Printf("Byte order: %s\n", desc.ByteOrder)
	fmt.Printf("Compression: %s\n", desc.Compression)

	fmt.Println("Dimensions:")
	for i, dim := range desc.Dimensions {
		fmt.Printf("  %d: %-4s %8d", i, dim.Order, dim.Size)
		if dim.Unit != "" || dim.Scale != 0 {
			fmt.Printf("  origin %g, scale %g %s", dim.Origin, dim.Scale, dim.Unit)
		}
		fmt.Println()
	}

	if bits, err := f.SignificantBits(ctx); err == nil && bits > 0 {
		fmt.Printf("Significant bits: %d\n", bits)
	}
	if system, err := f.CoordinateSystem(ctx); err == nil && system != "" {
		fmt.Printf("Coordinate system: %s\n", system)
	}

	if showHistory {
		entries, err := f.History(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("History (%d entries):\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %s\t%s\n", e.Key, e.Value)
		}
	}
	return nil
}
