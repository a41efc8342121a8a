// Command katana-gen is the OpenAPI code generator CLI (§6.4): it
// reads an OpenAPI 3.x document and writes the six generated Go files
// an embedder links against, or validates a spec without emitting
// anything.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/katana-http/katana/codegen"
	"github.com/katana-http/katana/katana/clitool"
	"github.com/katana-http/katana/openapi"
)

// buildCLI assembles the katana-gen command tree (§6.4): a single
// "openapi" subcommand with every flag the generator surface names.
// Split out of main so tests can drive the real command tree through
// clitool without forking a process.
func buildCLI() *clitool.CLI {
	return &clitool.CLI{
		Name:        "katana-gen",
		Version:     "0.1.0",
		Description: "Generates Go entities, codecs, validators, routes, and handler glue from an OpenAPI 3.x document.",
		Commands: []*clitool.Command{
			{
				Name:        "openapi",
				Usage:       "Generate Go source from an OpenAPI 3.x document",
				Description: "Loads an OpenAPI 3.x JSON document and emits the generated entities/codec/validator/routes/handlers/bindings files, or validates the document only.",
				Flags: []clitool.Flag{
					&clitool.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the OpenAPI 3.x JSON document",
						Required: true,
					},
					&clitool.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to write generated files into",
						Default: "./generated",
					},
					&clitool.StringFlag{
						Name:    "emit",
						Usage:   "Comma-separated subset of {entities,validator,codec,router,handler,all}",
						Default: "all",
					},
					&clitool.StringFlag{
						Name:    "allocator",
						Usage:   "Generated codec allocation strategy: arena or standard",
						Default: "arena",
					},
					&clitool.StringFlag{
						Name:    "inline-naming",
						Usage:   "Inline schema naming convention: operation or flat",
						Default: "operation",
					},
					&clitool.BoolFlag{
						Name:  "strict",
						Usage: "Treat unresolved $ref targets as fatal errors",
					},
					&clitool.BoolFlag{
						Name:  "check",
						Usage: "Validate the document only; write nothing",
					},
					&clitool.BoolFlag{
						Name:  "dump-ast",
						Usage: "Print the resolved document as JSON instead of generating code",
					},
					&clitool.BoolFlag{
						Name:  "json",
						Usage: "Report errors as a JSON object on stderr instead of plain text",
					},
					&clitool.BoolFlag{
						Name:  "watch",
						Usage: "Re-run generation whenever --input changes",
					},
				},
				Action: runOpenAPI,
			},
		},
	}
}

func main() {
	cli, err := clitool.NewCLI(buildCLI())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cli.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runOpenAPI(ctx *clitool.Context) error {
	input := ctx.String("input")
	output := ctx.String("output")
	watch := ctx.Bool("watch")

	runOnce := func() error { return generateOnce(ctx, input, output) }

	if err := runOnce(); err != nil {
		if ctx.Bool("json") {
			printJSONError(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		if !watch {
			return err
		}
	}
	if !watch {
		return nil
	}
	return watchAndRegenerate(input, runOnce, ctx.Bool("json"))
}

func generateOnce(ctx *clitool.Context, input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	opts := codegen.Options{
		Allocator:   codegen.ParseAllocatorMode(ctx.String("allocator")),
		NamingStyle: ctx.String("inline-naming"),
		Strict:      ctx.Bool("strict"),
		CheckOnly:   ctx.Bool("check"),
	}
	if !opts.CheckOnly {
		artifacts, err := codegen.ParseArtifacts(ctx.String("emit"))
		if err != nil {
			return err
		}
		opts.Artifacts = artifacts
	}

	doc, res, err := codegen.Generate(data, opts)
	if err != nil {
		return err
	}

	if ctx.Bool("dump-ast") {
		summary, err := codegen.DumpAST(doc)
		if err != nil {
			return fmt.Errorf("dumping AST: %w", err)
		}
		fmt.Println(string(summary))
		return nil
	}

	if opts.CheckOnly {
		fmt.Printf("%s: ok (%d paths, %d schemas)\n", input, len(doc.Paths), len(doc.Schemas))
		return nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	for name, src := range res.Files {
		path := filepath.Join(output, name)
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	fmt.Printf("wrote %d file(s) to %s\n", len(res.Files), output)
	return nil
}

// watchAndRegenerate reruns generate on every write to input until the
// process is interrupted, per the CLI's supplemental --watch flag.
func watchAndRegenerate(input string, generate func() error, asJSON bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watching %s: %w", input, err)
	}

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", input)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(input) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := generate(); err != nil {
				if asJSON {
					printJSONError(err)
				} else {
					fmt.Fprintln(os.Stderr, err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}

func printJSONError(err error) {
	payload := struct {
		Error    string `json:"error"`
		Kind     string `json:"kind,omitempty"`
		Location string `json:"location,omitempty"`
	}{Error: err.Error()}

	var loadErr *openapi.LoadError
	if errors.As(err, &loadErr) {
		payload.Kind = loadErr.Kind.String()
		payload.Location = loadErr.Location
	}

	enc, encErr := json.Marshal(payload)
	if encErr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(os.Stderr, string(enc))
}
