// Command fleece is a small driver for the fleece library.
//
// Usage:
//
//	fleece encode -in doc.json -out doc.fleece
//	fleece encode-dir -in jsondir/ -out fleecedir/ -workers 8
//	fleece dump -in doc.fleece
//	fleece hamt-demo -n 100000
//
// Flags are subcommand-specific; run `fleece <subcommand> -h` for details.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jbro885/fleece"
	"github.com/jbro885/fleece/hamt"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "encode-dir":
		err = runEncodeDir(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:])
	case "hamt-demo":
		err = runHAMTDemo(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fleece:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fleece <encode|encode-dir|dump|hamt-demo> [flags]")
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	in := fs.String("in", "", "input JSON file")
	out := fs.String("out", "", "output Fleece file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("encode: -in and -out are required")
	}
	return encodeFile(*in, *out)
}

func encodeFile(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	enc := fleece.NewEncoder()
	if err := fleece.EncodeJSON(enc, data); err != nil {
		return fmt.Errorf("encode %s: %w", in, err)
	}
	encoded, err := enc.End()
	if err != nil {
		return fmt.Errorf("finish %s: %w", in, err)
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// runEncodeDir fans out one Encoder per input file across an errgroup
// worker pool (§5's single-owner rule means each goroutine must own its
// own Encoder; none is shared).
func runEncodeDir(args []string) error {
	fs := flag.NewFlagSet("encode-dir", flag.ExitOnError)
	in := fs.String("in", "", "input directory of .json files")
	out := fs.String("out", "", "output directory for .fleece files")
	workers := fs.Int("workers", 4, "number of concurrent workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("encode-dir: -in and -out are required")
	}
	entries, err := os.ReadDir(*in)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", *in, err)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", *out, err)
	}

	var g errgroup.Group
	g.SetLimit(*workers)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			inPath := filepath.Join(*in, name)
			outPath := filepath.Join(*out, strings.TrimSuffix(name, ".json")+".fleece")
			return encodeFile(inPath, outPath)
		})
	}
	return g.Wait()
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	in := fs.String("in", "", "input Fleece file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("dump: -in is required")
	}
	r, err := fleece.OpenFile(*in)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer r.Close()
	dumpValue(os.Stdout, r.Root(), 0)
	return nil
}

func dumpValue(w *os.File, v fleece.Value, indent int) {
	pad := strings.Repeat("  ", indent)
	switch {
	case !v.IsValid() || v.IsNull():
		fmt.Fprintln(w, pad+"null")
	case v.IsArray():
		a := v.AsArray()
		fmt.Fprintf(w, "%sarray[%d]\n", pad, a.Len())
		for i := 0; i < a.Len(); i++ {
			dumpValue(w, a.Get(i), indent+1)
		}
	case v.IsDict():
		d := v.AsDict()
		fmt.Fprintf(w, "%sdict[%d]\n", pad, d.Len())
		for i := 0; i < d.Len(); i++ {
			fmt.Fprintf(w, "%s  %q:\n", pad, d.KeyAt(i).AsString())
			dumpValue(w, d.ValueAt(i), indent+2)
		}
	case v.IsString():
		fmt.Fprintf(w, "%s%q\n", pad, v.AsString())
	default:
		fmt.Fprintf(w, "%s%d\n", pad, v.AsInt64())
	}
}

func runHAMTDemo(args []string) error {
	fs := flag.NewFlagSet("hamt-demo", flag.ExitOnError)
	n := fs.Int("n", 100_000, "number of keys to insert")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tree := hamt.New()
	for i := 0; i < *n; i++ {
		tree.Insert(hamt.StringKey(strconv.Itoa(i)), hamt.Val(i))
	}
	fmt.Printf("inserted %d keys, count=%d\n", *n, tree.Count())
	removed := 0
	for i := 0; i < *n; i += 2 {
		if tree.Remove(hamt.StringKey(strconv.Itoa(i))) {
			removed++
		}
	}
	fmt.Printf("removed %d keys, count=%d\n", removed, tree.Count())
	return nil
}
