package docs

import (
	"fmt"
	"path/filepath"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
	"github.com/wirec-lang/wirec/internal/compiler/size"
	"github.com/wirec-lang/wirec/internal/tooling"
)

// Extractor extracts documentation from compiled schemas
type Extractor struct{}

// NewExtractor creates a new documentation extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract builds the reference of a schema that compiled without errors
func (e *Extractor) Extract(result *tooling.Result) (*Documentation, error) {
	if !result.OK() || result.Program == nil {
		errs, _ := result.Diagnostics.ErrorCount()
		return nil, fmt.Errorf("%s has %d error(s)", result.Name, errs)
	}

	cfg := result.Config
	listing := result.Program.List(true)
	examples := NewExampleGenerator(cfg)
	estimator := size.New(cfg)
	budget := result.EffectiveBudget()
	idSize := cfg.EventIDKind().Size()

	doc := &Documentation{
		Schema: filepath.Base(result.Name),
		IDKind: cfg.EventIDKind().String(),
		Budget: budget,
		Options: OptionsDoc{
			ServerOutput: cfg.Options.ServerOutput,
			ClientOutput: cfg.Options.ClientOutput,
			Casing:       cfg.Options.Casing.String(),
			WriteChecks:  cfg.Options.WriteChecks,
			Typescript:   cfg.Options.Typescript,
		},
		Events: make([]*EventDoc, 0, len(cfg.EventDecls)),
		Types:  make([]*TypeDoc, 0, len(cfg.TypeDecls)),
	}

	usedBy := make(map[string][]string)
	for i, ev := range cfg.EventDecls {
		eventDoc := &EventDoc{
			Name:      ev.Name,
			ID:        ev.ID,
			From:      ev.From.String(),
			Transport: ev.Transport.String(),
			Call:      ev.Call.String(),
			Size:      "0",
		}
		if i < len(listing.Events) {
			eventDoc.Shape = listing.Events[i].Shape
		}

		if ev.Data != nil {
			bounds := estimator.Bounds(ev.Data)
			eventDoc.Data = ev.Data.String()
			eventDoc.Size = bounds.String()
			eventDoc.Example = examples.GenerateForType(ev.Data)
			if ev.Transport == schema.Unreliable {
				eventDoc.OverBudget = !bounds.HasMax || bounds.Max+idSize > budget
			}
			for name := range reachable(cfg, ev.Data) {
				usedBy[name] = append(usedBy[name], ev.Name)
			}
		}
		doc.Events = append(doc.Events, eventDoc)
	}

	shapes := make(map[string]string, len(listing.Types))
	for _, t := range listing.Types {
		shapes[t.Name] = t.Shape
	}

	for _, td := range cfg.TypeDecls {
		doc.Types = append(doc.Types, &TypeDoc{
			Name:       td.Name,
			Definition: td.Type.String(),
			Size:       estimator.Bounds(td.Type).String(),
			Shape:      shapes[td.Name],
			Example:    examples.GenerateForDecl(td),
			UsedBy:     usedBy[td.Name],
		})
	}

	return doc, nil
}

// reachable returns the names of the declared types t refers to, directly
// or through other types
func reachable(cfg *schema.Config, t schema.Type) map[string]bool {
	seen := make(map[string]bool)
	var walk func(schema.Type)
	walk = func(t schema.Type) {
		switch t := t.(type) {
		case schema.Arr:
			walk(t.Elem)
		case schema.Map:
			walk(t.Key)
			walk(t.Val)
		case schema.Opt:
			walk(t.Inner)
		case schema.Ref:
			if seen[t.Name] {
				return
			}
			seen[t.Name] = true
			if td, ok := cfg.Type(t.Name); ok {
				walk(td.Type)
			}
		case *schema.Struct:
			for _, f := range t.Fields {
				walk(f.Type)
			}
		case *schema.TaggedEnum:
			for _, v := range t.Variants {
				walk(v.Struct)
			}
			if t.CatchAll != nil {
				walk(t.CatchAll)
			}
		}
	}
	walk(t)
	return seen
}
