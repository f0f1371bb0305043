package executor

import "strings"

// Runtime describes how a language is presented to an execution backend:
// the canonical engine name and the filename the code is written to.
// Compiled languages need the right extension (and Java the right class
// name) for the engine to build them.
type Runtime struct {
	Name     string
	Filename string
}

// runtimes maps user-facing language identifiers, including common aliases,
// to their runtime. Keys are lowercase.
var runtimes = map[string]Runtime{
	"python":     {Name: "python", Filename: "main.py"},
	"python3":    {Name: "python", Filename: "main.py"},
	"py":         {Name: "python", Filename: "main.py"},
	"javascript": {Name: "javascript", Filename: "main.js"},
	"js":         {Name: "javascript", Filename: "main.js"},
	"node":       {Name: "javascript", Filename: "main.js"},
	"typescript": {Name: "typescript", Filename: "main.ts"},
	"ts":         {Name: "typescript", Filename: "main.ts"},
	"c":          {Name: "c", Filename: "main.c"},
	"cpp":        {Name: "c++", Filename: "main.cpp"},
	"c++":        {Name: "c++", Filename: "main.cpp"},
	"java":       {Name: "java", Filename: "Main.java"},
	"go":         {Name: "go", Filename: "main.go"},
	"golang":     {Name: "go", Filename: "main.go"},
	"rust":       {Name: "rust", Filename: "main.rs"},
	"rs":         {Name: "rust", Filename: "main.rs"},
	"php":        {Name: "php", Filename: "main.php"},
	"ruby":       {Name: "ruby", Filename: "main.rb"},
	"rb":         {Name: "ruby", Filename: "main.rb"},
	"csharp":     {Name: "csharp", Filename: "Main.cs"},
	"c#":         {Name: "csharp", Filename: "Main.cs"},
	"bash":       {Name: "bash", Filename: "main.sh"},
	"sh":         {Name: "bash", Filename: "main.sh"},
	"shell":      {Name: "bash", Filename: "main.sh"},
}

// ResolveRuntime maps a language identifier to its runtime,
// case-insensitively. Returns ErrUnsupportedLanguage for unknown languages.
func ResolveRuntime(language string) (Runtime, error) {
	rt, ok := runtimes[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return Runtime{}, ErrUnsupportedLanguage
	}
	return rt, nil
}
