// Package main provides the SNNKit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/snnkit/snnkit/backend/cpu"
	"github.com/snnkit/snnkit/loader"
	"github.com/snnkit/snnkit/parse"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("SNNKit %s\n", version)
			return
		case "describe":
			if len(os.Args) != 4 {
				fmt.Fprintln(os.Stderr, "usage: snnkit describe <dir> <model>")
				os.Exit(2)
			}
			if err := describe(os.Args[2], os.Args[3]); err != nil {
				fmt.Fprintln(os.Stderr, "snnkit:", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("SNNKit - ANN to SNN conversion toolkit for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                  Show version")
	fmt.Println("  describe <dir> <model>   Load a model pair and print its layer records")
}

// describe loads the <name>.json / weights pair under dir, extracts the
// network description, and prints one line per record.
func describe(dir, name string) error {
	backend := cpu.New()
	loaded, err := loader.Load(backend, loader.Config[*cpu.CPUBackend]{
		Path:      dir,
		ModelName: name,
	})
	if err != nil {
		return err
	}

	desc, err := parse.Extract(loaded.Model, parse.Config{})
	if err != nil {
		return err
	}

	fmt.Printf("%s: input %v, %d records\n", name, desc.InputShape, len(desc.Layers))
	for k, rec := range desc.Layers {
		core := rec.Core()
		fmt.Printf("  %2d  %-10s  %-24s -> %v\n", k, core.Kind, core.Label, core.OutputShape)
	}
	return nil
}
