package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/danmuck/strictwire"
	"github.com/danmuck/strictwire/digest"
	"github.com/danmuck/strictwire/internal/logging"
	"github.com/danmuck/strictwire/schemadoc"
)

func main() {
	logging.ConfigureRuntime()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "vet":
		err = runVet(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "digest":
		err = runDigest(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "wirectl: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `wirectl manages schema documents and canonical encodings.

Usage:
  wirectl <command> [flags]

Commands:
  init     write a starter schema document
  vet      validate and compile a schema document
  encode   encode a JSON value to canonical bytes
  inspect  decode canonical bytes and print the value
  digest   print the BLAKE3 digest of an encoded value

Run "wirectl <command> -h" for command flags.
`)
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	output := fs.String("output", "strictwire.toml", "output path for the schema template")
	force := fs.Bool("force", false, "overwrite an existing schema file")
	fs.Parse(args)

	if err := schemadoc.WriteTemplate(*output, *force); err != nil {
		return err
	}
	log.Printf("Wrote schema template to %s", *output)
	return nil
}

func runVet(args []string) error {
	fs := flag.NewFlagSet("vet", flag.ExitOnError)
	schemaPath := fs.String("schema", "strictwire.toml", "schema document path")
	fs.Parse(args)

	reg, err := loadRegistry(*schemaPath)
	if err != nil {
		return err
	}
	for _, name := range reg.Types() {
		fmt.Printf("%s: ok\n", name)
	}
	log.Printf("Validated %d types from %s", len(reg.Types()), *schemaPath)
	return nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	schemaPath := fs.String("schema", "strictwire.toml", "schema document path")
	typeName := fs.String("type", "", "type to encode")
	literal := fs.String("json", "", "value as a JSON literal")
	input := fs.String("in", "", "path to a JSON value (defaults to stdin)")
	output := fs.String("out", "", "write binary to a path instead of hex to stdout")
	fs.Parse(args)

	if *typeName == "" {
		return fmt.Errorf("encode requires -type")
	}
	reg, err := loadRegistry(*schemaPath)
	if err != nil {
		return err
	}
	plan, err := reg.Compile(*typeName)
	if err != nil {
		return err
	}

	raw, err := readInput(*literal, *input)
	if err != nil {
		return err
	}
	value, err := valueFromJSON(reg, *typeName, raw)
	if err != nil {
		return err
	}
	data, err := plan.Encode(value)
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, data, 0o600); err != nil {
			return err
		}
		log.Printf("Wrote %d bytes to %s", len(data), *output)
		return nil
	}
	fmt.Printf("%x\n", data)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	schemaPath := fs.String("schema", "strictwire.toml", "schema document path")
	typeName := fs.String("type", "", "type to decode")
	input := fs.String("in", "", "path to encoded bytes (defaults to stdin)")
	hexLiteral := fs.String("hex", "", "encoded bytes as a hex literal")
	fs.Parse(args)

	if *typeName == "" {
		return fmt.Errorf("inspect requires -type")
	}
	reg, err := loadRegistry(*schemaPath)
	if err != nil {
		return err
	}
	plan, err := reg.Compile(*typeName)
	if err != nil {
		return err
	}

	data, err := readEncoded(*hexLiteral, *input)
	if err != nil {
		return err
	}
	value, err := plan.Decode(data)
	if err != nil {
		return err
	}
	fmt.Println(value.String())
	return nil
}

func runDigest(args []string) error {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	schemaPath := fs.String("schema", "strictwire.toml", "schema document path")
	typeName := fs.String("type", "", "type of the encoded value")
	input := fs.String("in", "", "path to encoded bytes (defaults to stdin)")
	hexLiteral := fs.String("hex", "", "encoded bytes as a hex literal")
	fs.Parse(args)

	if *typeName == "" {
		return fmt.Errorf("digest requires -type")
	}
	reg, err := loadRegistry(*schemaPath)
	if err != nil {
		return err
	}
	plan, err := reg.Compile(*typeName)
	if err != nil {
		return err
	}

	data, err := readEncoded(*hexLiteral, *input)
	if err != nil {
		return err
	}
	// Digest the canonical form so re-ordered extension entries in
	// the input cannot change the digest.
	value, err := plan.Decode(data)
	if err != nil {
		return err
	}
	h, err := digest.Sum(plan, value)
	if err != nil {
		return err
	}
	fmt.Println(digest.Format(h))
	return nil
}

func loadRegistry(path string) (*strictwire.Registry, error) {
	doc, err := schemadoc.Load(path)
	if err != nil {
		return nil, err
	}
	descriptors, err := doc.Descriptors()
	if err != nil {
		return nil, err
	}
	reg := strictwire.NewRegistry()
	for _, td := range descriptors {
		if err := reg.Add(td); err != nil {
			return nil, err
		}
	}
	if err := reg.CompileAll(); err != nil {
		return nil, err
	}
	return reg, nil
}

func readInput(literal, path string) ([]byte, error) {
	if literal != "" {
		return []byte(literal), nil
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read value: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

func readEncoded(hexLiteral, path string) ([]byte, error) {
	if hexLiteral != "" {
		data, err := hex.DecodeString(strings.TrimSpace(hexLiteral))
		if err != nil {
			return nil, fmt.Errorf("parse hex: %w", err)
		}
		return data, nil
	}
	return readInput("", path)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "wirectl: "+format+"\n", args...)
	os.Exit(1)
}
