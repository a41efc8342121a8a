package codegen

import (
	"fmt"
	"strings"

	"github.com/katana-http/katana/openapi"
)

// Artifact names one of the six files §4.8 describes, keyed the way
// --emit accepts them on the CLI.
type Artifact string

const (
	ArtifactEntities  Artifact = "entities"
	ArtifactValidator Artifact = "validator"
	ArtifactCodec     Artifact = "codec"
	ArtifactRouter    Artifact = "router"
	ArtifactHandler   Artifact = "handler"
)

// AllArtifacts lists every artifact --emit=all expands to, in emission
// order: entities and codec first since routes/handlers/glue reference
// the types and codec functions they produce.
var AllArtifacts = []Artifact{
	ArtifactEntities,
	ArtifactCodec,
	ArtifactValidator,
	ArtifactRouter,
	ArtifactHandler,
}

// ParseArtifacts splits a comma-separated --emit value into its
// Artifact list. "all" (alone or mixed in) expands to AllArtifacts.
func ParseArtifacts(spec string) ([]Artifact, error) {
	if strings.TrimSpace(spec) == "" {
		return AllArtifacts, nil
	}
	var out []Artifact
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		switch Artifact(part) {
		case "all":
			return AllArtifacts, nil
		case ArtifactEntities, ArtifactValidator, ArtifactCodec, ArtifactRouter, ArtifactHandler:
			out = append(out, Artifact(part))
		default:
			return nil, fmt.Errorf("unknown --emit value %q", part)
		}
	}
	return out, nil
}

// Options configures one generator invocation, mirroring the CLI flags
// of §6.4.
type Options struct {
	Allocator     AllocatorMode
	NamingStyle   string // "operation" or "flat"
	Strict        bool
	CheckOnly     bool
	Artifacts     []Artifact // nil/empty means AllArtifacts
}

// Result holds the rendered source for each requested artifact, keyed
// by the same file-naming convention §6.3 lists ("entities", "codec",
// "validator", "routes", "handlers", "bindings").
type Result struct {
	Files map[string]string
}

// Generate loads spec data, then — unless CheckOnly is set — renders
// each requested artifact. CheckOnly exists so the CLI's --check can
// validate a spec without writing anything, mirroring options.cpp's
// check-only mode in the original generator: loading is already the
// expensive, failure-prone half of the work, so a validate-only path
// just stops short of calling the emitters.
func Generate(specData []byte, opts Options) (*openapi.Document, *Result, error) {
	doc, err := openapi.Load(specData, openapi.LoadOptions{
		Strict:      opts.Strict,
		NamingStyle: opts.NamingStyle,
	})
	if err != nil {
		return nil, nil, err
	}

	if opts.CheckOnly {
		return doc, nil, nil
	}

	artifacts := opts.Artifacts
	if len(artifacts) == 0 {
		artifacts = AllArtifacts
	}

	res := &Result{Files: make(map[string]string, len(artifacts))}
	for _, a := range artifacts {
		if err := generateOne(doc, a, opts.Allocator, res); err != nil {
			return doc, nil, fmt.Errorf("generating %s: %w", a, err)
		}
	}
	return doc, res, nil
}

// generateOne renders the file(s) for one requested artifact. "handler"
// additionally renders the bindings file: binding glue implements the
// Handler interface handlers.go defines, so the two have no meaning
// generated separately and --emit has no standalone "bindings" value.
func generateOne(doc *openapi.Document, a Artifact, mode AllocatorMode, res *Result) error {
	switch a {
	case ArtifactEntities:
		src, err := GenerateEntities(doc, mode)
		if err != nil {
			return err
		}
		res.Files["entities.go"] = src
	case ArtifactCodec:
		src, err := GenerateCodec(doc, mode)
		if err != nil {
			return err
		}
		res.Files["codec.go"] = src
	case ArtifactValidator:
		src, err := GenerateValidator(doc, mode)
		if err != nil {
			return err
		}
		res.Files["validator.go"] = src
	case ArtifactRouter:
		src, err := GenerateRoutes(doc)
		if err != nil {
			return err
		}
		res.Files["routes.go"] = src
	case ArtifactHandler:
		src, err := GenerateHandlers(doc)
		if err != nil {
			return err
		}
		res.Files["handlers.go"] = src

		glue, err := GenerateGlue(doc, mode)
		if err != nil {
			return err
		}
		res.Files["bindings.go"] = glue
	default:
		return fmt.Errorf("unknown artifact %q", a)
	}
	return nil
}
