package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// TupleElem is one element of a tuple type, optionally labeled.
type TupleElem struct {
	Label string
	Type  TypeID
}

// TupleInfo stores the elements of a tuple type.
type TupleInfo struct {
	Elems []TupleElem
}

// Tuple creates or finds the tuple type with the given elements.
// The empty tuple is the unit type.
func (in *Interner) Tuple(elems []TupleElem) TypeID {
	key := tupleKey(elems)
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.tupleIdx[key]; ok {
		return id
	}
	in.tuples = append(in.tuples, TupleInfo{Elems: cloneElems(elems)})
	slot, err := safecast.Conv[uint32](len(in.tuples) - 1)
	if err != nil {
		panic(fmt.Errorf("tuple info overflow: %w", err))
	}
	id := in.internLocked(Type{Kind: KindTuple, Payload: slot})
	in.tupleIdx[key] = id
	return id
}

// TupleOf is Tuple with unlabeled elements.
func (in *Interner) TupleOf(elems ...TypeID) TypeID {
	out := make([]TupleElem, len(elems))
	for i, t := range elems {
		out[i] = TupleElem{Type: t}
	}
	return in.Tuple(out)
}

// TupleInfo returns the elements for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return TupleInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.tuples) {
		return TupleInfo{}, false
	}
	return TupleInfo{Elems: cloneElems(in.tuples[tt.Payload].Elems)}, true
}

// FunParams returns the parameter types of a function type.
func (in *Interner) FunParams(fun TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(fun)
	if !ok || tt.Kind != KindFun {
		return nil, false
	}
	info, ok := in.TupleInfo(tt.Elem)
	if !ok {
		return []TypeID{tt.Elem}, true
	}
	params := make([]TypeID, len(info.Elems))
	for i, e := range info.Elems {
		params[i] = e.Type
	}
	return params, true
}

func tupleKey(elems []TupleElem) string {
	var sb strings.Builder
	for _, e := range elems {
		sb.WriteString(strconv.Quote(e.Label))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(e.Type), 10))
		sb.WriteByte(',')
	}
	return sb.String()
}

func cloneElems(elems []TupleElem) []TupleElem {
	if len(elems) == 0 {
		return nil
	}
	out := make([]TupleElem, len(elems))
	copy(out, elems)
	return out
}
