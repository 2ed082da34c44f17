package types

import (
	"strconv"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 8 {
		return "..."
	}
	if typesIn == nil {
		return "type#" + strconv.FormatUint(uint64(id), 10)
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindError:
		return "<error>"
	case KindUnresolved:
		return "<unresolved>"
	case KindBuiltinIntLiteral:
		return intLiteralName
	case KindBuiltinInt:
		return "i" + strconv.Itoa(int(tt.Width))
	case KindProduct, KindView:
		info, ok := typesIn.NominalInfo(id)
		if !ok || info.Name == "" {
			return "type#" + strconv.FormatUint(uint64(id), 10)
		}
		return info.Name
	case KindTuple:
		return labelTuple(typesIn, id, depth)
	case KindFun:
		params := labelDepth(typesIn, tt.Elem, depth+1)
		if pt, ok := typesIn.Lookup(tt.Elem); ok && pt.Kind != KindTuple {
			params = "(" + params + ")"
		}
		return params + " -> " + labelDepth(typesIn, tt.Result, depth+1)
	case KindInout:
		return "inout " + labelDepth(typesIn, tt.Elem, depth+1)
	case KindOpened:
		return "@opened(" + labelDepth(typesIn, tt.Elem, depth+1) + ")"
	default:
		return "?"
	}
}

func labelTuple(typesIn *Interner, id TypeID, depth int) string {
	info, ok := typesIn.TupleInfo(id)
	if !ok {
		return "?"
	}
	parts := make([]string, 0, len(info.Elems))
	for _, e := range info.Elems {
		elem := labelDepth(typesIn, e.Type, depth+1)
		if e.Label != "" {
			elem = e.Label + ": " + elem
		}
		parts = append(parts, elem)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
