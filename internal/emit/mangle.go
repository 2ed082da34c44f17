package emit

import (
	"strconv"

	"golang.org/x/text/unicode/norm"

	"val/internal/ast"
)

// functionName returns the VIL name of a function declaration: the module
// name and the qualified declaration name, NFC-normalized so that
// canonically equal spellings name one function. Names already taken by
// another declaration get the declaration ID appended.
func (e *Emitter) functionName(id ast.DeclID) string {
	name := norm.NFC.String(e.src.Name + "." + e.src.QualifiedName(id))
	if owner, ok := e.names[name]; ok && owner != id {
		name += "#" + strconv.FormatUint(uint64(id), 10)
	}
	e.names[name] = id
	return name
}
