package semantic

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/semantic/types"
)

// libraryReturns holds the return types of library functions that do not
// return int. Every other library function returns int.
var libraryReturns = map[string]types.Type{
	"malloc":  "void*",
	"calloc":  "void*",
	"realloc": "void*",
	"fopen":   "FILE*",
	"gets":    "char*",
	"strcpy":  "char*",
	"strcat":  "char*",
	"memcpy":  "void*",
	"memset":  "void*",
	"free":    types.Void,
	"exit":    types.Void,
}

// ambient names need no declaration: stream objects, this, and the
// literal words the lexer leaves as identifiers.
var ambient = map[string]bool{
	"cout": true, "cin": true, "endl": true, "this": true,
	"true": true, "false": true, "NULL": true, "nullptr": true,
}

// IsLibraryFunction reports whether name is a well-known library function.
func IsLibraryFunction(name string) bool {
	return lexer.LookupKeyword(name).IsLibraryFunction()
}

// LibraryReturn returns the result type of a library function call.
func LibraryReturn(name string) types.Type {
	if t, ok := libraryReturns[name]; ok {
		return t
	}
	return types.Int
}

// maxSuggestDistance bounds the edit distance of a "did you mean" hint.
const maxSuggestDistance = 2

// suggestName returns the declared name closest to name, or "".
func suggestName(name string, candidates []string) string {
	best, bestDist := "", maxSuggestDistance+1
	sort.Strings(candidates)
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := fuzzy.LevenshteinDistance(name, c)
		if d < bestDist && d < len(name) {
			best, bestDist = c, d
		}
	}
	return best
}
