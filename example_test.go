package ics_test

import (
	"context"
	"fmt"
	"log"

	ics "github.com/anntzer/go-libics"
	"github.com/anntzer/go-libics/engine"
)

// Example reads the shape and pixel data of an ICS image.
func Example() {
	ctx := context.Background()

	eng, err := engine.New(ctx, engine.Config{LibraryPath: "libics.wasm"})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close(ctx)

	f, err := ics.Open(ctx, eng, "testdata/sample.ics", ics.Read)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close(ctx)

	desc, err := f.Descriptor(ctx)
	if err != nil {
		log.Fatal(err)
	}
	buf, err := f.ReadData(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s image, %d axes, %d elements\n",
		desc.DataType, len(desc.Dimensions), buf.Elements)
}

// Example_write creates a new ICS file with one history entry.
func Example_write() {
	ctx := context.Background()

	eng, err := engine.New(ctx, engine.Config{LibraryPath: "libics.wasm"})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close(ctx)

	f, err := ics.Open(ctx, eng, "out.ics", ics.New)
	if err != nil {
		log.Fatal(err)
	}

	desc := ics.Descriptor{
		DataType: ics.Uint16,
		Dimensions: []ics.Dimension{
			{Size: 256, Order: "x"},
			{Size: 256, Order: "y"},
		},
	}
	data := make([]byte, 256*256*2)
	if err := f.WriteData(ctx, desc, data); err != nil {
		log.Fatal(err)
	}
	if err := f.AddHistory(ctx, "author", "example"); err != nil {
		log.Fatal(err)
	}

	// The native library writes the data section on close.
	if err := f.Close(ctx); err != nil {
		log.Fatal(err)
	}
}
