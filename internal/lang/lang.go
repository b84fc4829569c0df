// Package lang is the language registry (§4.A): a read-only, injected
// table mapping each supported language to its tree-sitter grammar,
// extraction queries, and visibility rule. It replaces the teacher's
// embedded-scripting-VM extraction vehicle with plain tree-sitter
// queries, compiled once at registry construction.
package lang

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codemap-dev/codemap/internal/store"
)

// Language is one registry entry (§4.A): extensions, grammar, compiled
// queries, and the visibility rule for definitions in this language.
type Language struct {
	Name       string
	Extensions []string
	Grammar    *sitter.Language

	Definitions     *sitter.Query
	DefinitionKinds map[string]store.NodeKind // capture-group prefix -> node kind

	Imports *sitter.Query
	Calls   *sitter.Query

	Inheritance     *sitter.Query
	InheritanceKind map[string]store.EdgeKind // capture-group prefix -> edge kind

	ModifierKeywords map[string]bool // leading-token types this language treats as visibility modifiers
	ExportAware      bool            // export_statement makes the definition public (JS/TS)

	Visibility VisibilityFunc
}

// spec is the uncompiled, data-only description of one language; NewRegistry
// compiles its query strings into *sitter.Query values.
type spec struct {
	name             string
	extensions       []string
	grammar          *sitter.Language
	definitions      string
	definitionKinds  map[string]store.NodeKind
	imports          string
	calls            string
	inheritance      string
	inheritanceKind  map[string]store.EdgeKind
	modifierKeywords map[string]bool
	exportAware      bool
	visibility       VisibilityFunc
}

func specs() []spec {
	return []spec{
		{
			name:            "go",
			extensions:      []string{".go"},
			grammar:         golang.GetLanguage(),
			definitions:     goDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "method": store.KindMethod, "struct": store.KindStruct, "interface": store.KindInterface},
			imports:         goImports,
			calls:           goCalls,
			visibility:      CapitalizationBased(),
		},
		{
			name:            "typescript",
			extensions:      []string{".ts", ".tsx"},
			grammar:         ts.GetLanguage(),
			definitions:     tsDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "method": store.KindMethod, "class": store.KindClass, "interface": store.KindInterface, "enum": store.KindEnum},
			imports:         tsImports,
			calls:           tsCalls,
			inheritance:     tsInheritance,
			inheritanceKind: map[string]store.EdgeKind{"extends": store.EdgeExtends, "implements": store.EdgeImplements},
			modifierKeywords: map[string]bool{
				"public": true, "private": true, "protected": true, "static": true, "readonly": true, "export": true,
			},
			exportAware: true,
			visibility:  ExplicitKeyword(store.VisibilityPrivate),
		},
		{
			name:            "javascript",
			extensions:      []string{".js", ".jsx"},
			grammar:         javascript.GetLanguage(),
			definitions:     jsDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "method": store.KindMethod, "class": store.KindClass},
			imports:         jsImports,
			calls:           jsCalls,
			inheritance:     jsInheritance,
			inheritanceKind: map[string]store.EdgeKind{"extends": store.EdgeExtends},
			modifierKeywords: map[string]bool{
				"static": true, "export": true,
			},
			exportAware: true,
			visibility:  ExplicitKeyword(store.VisibilityPrivate),
		},
		{
			name:            "python",
			extensions:      []string{".py"},
			grammar:         python.GetLanguage(),
			definitions:     pyDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "method": store.KindMethod, "class": store.KindClass},
			imports:         pyImports,
			calls:           pyCalls,
			inheritance:     pyInheritance,
			inheritanceKind: map[string]store.EdgeKind{"extends": store.EdgeExtends},
			visibility:      ConventionOnly(),
		},
		{
			name:            "rust",
			extensions:      []string{".rs"},
			grammar:         rust.GetLanguage(),
			definitions:     rustDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "method": store.KindMethod, "struct": store.KindStruct, "enum": store.KindEnum, "interface": store.KindTrait},
			imports:         rustImports,
			calls:           rustCalls,
			inheritance:     rustInheritance,
			inheritanceKind: map[string]store.EdgeKind{"implements": store.EdgeImplements},
			modifierKeywords: map[string]bool{
				"pub": true,
			},
			visibility: ExplicitKeyword(store.VisibilityPrivate),
		},
		{
			name:            "c",
			extensions:      []string{".c", ".h"},
			grammar:         c.GetLanguage(),
			definitions:     cDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "struct": store.KindStruct, "enum": store.KindEnum},
			imports:         cImports,
			calls:           cCalls,
			modifierKeywords: map[string]bool{
				"static": true,
			},
			visibility: ModuleScopeKeyword(),
		},
		{
			name:            "cpp",
			extensions:      []string{".cpp", ".cc", ".cxx", ".hpp"},
			grammar:         cpp.GetLanguage(),
			definitions:     cppDefinitions,
			definitionKinds: map[string]store.NodeKind{"function": store.KindFunction, "struct": store.KindStruct, "enum": store.KindEnum, "class": store.KindClass, "module": store.KindModule},
			imports:         cppImports,
			calls:           cppCalls,
			modifierKeywords: map[string]bool{
				"public": true, "private": true, "protected": true, "static": true,
			},
			visibility: ExplicitKeyword(store.VisibilityPublic),
		},
		{
			name:            "java",
			extensions:      []string{".java"},
			grammar:         java.GetLanguage(),
			definitions:     javaDefinitions,
			definitionKinds: map[string]store.NodeKind{"method": store.KindMethod, "class": store.KindClass, "interface": store.KindInterface, "enum": store.KindEnum, "variable": store.KindVariable},
			imports:         javaImports,
			calls:           javaCalls,
			inheritance:     javaInheritance,
			inheritanceKind: map[string]store.EdgeKind{"extends": store.EdgeExtends, "implements": store.EdgeImplements},
			modifierKeywords: map[string]bool{
				"public": true, "private": true, "protected": true, "static": true, "final": true, "abstract": true,
			},
			visibility: ExplicitKeyword(store.VisibilityUnknown),
		},
		{
			name:            "php",
			extensions:      []string{".php"},
			grammar:         php.GetLanguage(),
			definitions:     phpDefinitions,
			definitionKinds: map[string]store.NodeKind{"class": store.KindClass, "interface": store.KindInterface, "trait": store.KindTrait, "enum": store.KindEnum, "function": store.KindFunction, "method": store.KindMethod},
			imports:         phpImports,
			calls:           phpCalls,
			inheritance:     phpInheritance,
			inheritanceKind: map[string]store.EdgeKind{"extends": store.EdgeExtends, "implements": store.EdgeImplements},
			modifierKeywords: map[string]bool{
				"public": true, "private": true, "protected": true, "static": true, "abstract": true, "final": true,
			},
			visibility: ExplicitKeyword(store.VisibilityPublic),
		},
		{
			name:            "ruby",
			extensions:      []string{".rb"},
			grammar:         ruby.GetLanguage(),
			definitions:     rubyDefinitions,
			definitionKinds: map[string]store.NodeKind{"method": store.KindMethod, "class": store.KindClass, "module": store.KindModule},
			imports:         rubyImports,
			calls:           rubyCalls,
			inheritance:     rubyInheritance,
			inheritanceKind: map[string]store.EdgeKind{"extends": store.EdgeExtends},
			visibility:      ConventionOnly(),
		},
	}
}

// Registry is the process-wide, read-only language table. It is built
// once and passed by reference to whoever needs it (extractor, CLI),
// never stored in a package-level global (§9 "Global state").
type Registry struct {
	byExt  map[string]*Language
	byName map[string]*Language
	all    []*Language
}

// NewRegistry compiles every language's queries and builds the registry.
// A compile failure for one language's query set is a construction error:
// a broken query means the registry cannot be trusted to extract that
// language correctly.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		byExt:  make(map[string]*Language),
		byName: make(map[string]*Language),
	}
	for _, s := range specs() {
		l, err := compile(s)
		if err != nil {
			return nil, fmt.Errorf("lang: compiling %s: %w", s.name, err)
		}
		r.all = append(r.all, l)
		r.byName[l.Name] = l
		for _, ext := range l.Extensions {
			r.byExt[ext] = l
		}
	}
	return r, nil
}

func compile(s spec) (*Language, error) {
	defs, err := compileQuery(s.definitions, s.grammar)
	if err != nil {
		return nil, fmt.Errorf("definitions query: %w", err)
	}
	imports, err := compileQuery(s.imports, s.grammar)
	if err != nil {
		return nil, fmt.Errorf("imports query: %w", err)
	}
	calls, err := compileQuery(s.calls, s.grammar)
	if err != nil {
		return nil, fmt.Errorf("calls query: %w", err)
	}
	inheritance, err := compileQuery(s.inheritance, s.grammar)
	if err != nil {
		return nil, fmt.Errorf("inheritance query: %w", err)
	}
	return &Language{
		Name:             s.name,
		Extensions:       s.extensions,
		Grammar:          s.grammar,
		Definitions:      defs,
		DefinitionKinds:  s.definitionKinds,
		Imports:          imports,
		Calls:            calls,
		Inheritance:      inheritance,
		InheritanceKind:  s.inheritanceKind,
		ModifierKeywords: s.modifierKeywords,
		ExportAware:      s.exportAware,
		Visibility:       s.visibility,
	}, nil
}

func compileQuery(src string, grammar *sitter.Language) (*sitter.Query, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	return sitter.NewQuery([]byte(src), grammar)
}

// ForFile resolves a language by the file's extension (§4.A "purely
// extension-based"). Unknown extensions return (nil, false); the caller
// skips the file without error.
func (r *Registry) ForFile(path string) (*Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := r.byExt[ext]
	return l, ok
}

// ForName resolves a language by its canonical name.
func (r *Registry) ForName(name string) (*Language, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// Languages returns every registered language, for diagnostics and tests.
func (r *Registry) Languages() []*Language {
	return append([]*Language(nil), r.all...)
}
