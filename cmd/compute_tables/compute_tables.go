package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/wbrown/ansi256"
)

func main() {
	verify := flag.Bool("verify", false,
		"Read an existing tables file and check it against every scan backend")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: compute_tables [-verify] <palette | file.tables>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	if *verify {
		if err := verifyFile(path); err != nil {
			log.Fatalf("Verification of %s failed: %v", path, err)
		}
		fmt.Printf("%s matches all backends\n", path)
		return
	}

	palette, err := ansi256.LoadPalette(path)
	if err != nil {
		log.Fatalf("Error loading palette: %v", err)
	}
	pp := ansi256.NewPerceptualPalette(palette)
	for _, m := range ansi256.Metrics {
		if err := pp.Distinct(m); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}

	fmt.Printf("Computing tables for %s\n", path)
	tables, err := ansi256.ExportTables(pp)
	if err != nil {
		log.Fatalf("Failed to compute tables: %v", err)
	}

	// Remove any extensions from path
	name := filepath.Base(path)
	p := name[:len(name)-len(filepath.Ext(name))] + ".tables"
	var buf bytes.Buffer
	if err := ansi256.WriteTables(&buf, tables); err != nil {
		log.Fatalf("Failed to encode computed tables for %s: %v", p, err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		log.Fatalf("Failed to write compressed file %s: %v", p, err)
	}
	fmt.Printf("Wrote %s: %d conformance vectors, %d bytes\n", p, len(tables.Vectors), buf.Len())
}

func verifyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	tables, err := ansi256.ReadTables(f)
	if err != nil {
		return err
	}
	pp := ansi256.NewPerceptualPalette(tables.Palette)
	if pp.LabTable() != tables.Lab || pp.JabTable() != tables.Jab || pp.CIE94Table() != tables.CIE94 {
		return fmt.Errorf("perceptual tables differ from those computed here")
	}
	for _, b := range []ansi256.Backend{ansi256.BackendScalar, ansi256.BackendVec4, ansi256.BackendVec8} {
		s, err := ansi256.NewSearcher(pp).WithBackend(b)
		if err != nil {
			return err
		}
		if err := tables.Verify(s); err != nil {
			return fmt.Errorf("%v: %w", b, err)
		}
	}
	return nil
}
