package types

import "fmt"

// Snapshot is a plain-data copy of an interner, suitable for serialization.
type Snapshot struct {
	Types    []Type
	Tuples   []TupleInfo
	Nominals []NominalInfo
}

// Snapshot copies the interner's tables.
func (in *Interner) Snapshot() Snapshot {
	in.mu.RLock()
	defer in.mu.RUnlock()
	s := Snapshot{
		Types:    make([]Type, len(in.types)),
		Tuples:   make([]TupleInfo, len(in.tuples)),
		Nominals: make([]NominalInfo, len(in.nominals)),
	}
	copy(s.Types, in.types)
	for i, t := range in.tuples {
		s.Tuples[i] = TupleInfo{Elems: cloneElems(t.Elems)}
	}
	copy(s.Nominals, in.nominals)
	return s
}

// FromSnapshot rebuilds an interner whose TypeIDs match the snapshot's.
func FromSnapshot(s Snapshot) (*Interner, error) {
	if len(s.Types) == 0 || s.Types[0].Kind != KindInvalid {
		return nil, fmt.Errorf("types: snapshot lacks the invalid sentinel")
	}
	in := &Interner{
		types:    make([]Type, len(s.Types)),
		index:    make(map[typeKey]TypeID, len(s.Types)),
		tupleIdx: make(map[string]TypeID, len(s.Tuples)),
		named:    make(map[string]TypeID, 8),
	}
	copy(in.types, s.Types)
	in.tuples = make([]TupleInfo, 0, len(s.Tuples)+1)
	if len(s.Tuples) == 0 {
		in.tuples = append(in.tuples, TupleInfo{})
	}
	for _, t := range s.Tuples {
		in.tuples = append(in.tuples, TupleInfo{Elems: cloneElems(t.Elems)})
	}
	in.nominals = append([]NominalInfo(nil), s.Nominals...)
	if len(in.nominals) == 0 {
		in.nominals = append(in.nominals, NominalInfo{})
	}

	for i, t := range in.types {
		id := TypeID(i) //nolint:gosec // bounded by the snapshot the ids came from
		switch t.Kind {
		case KindTuple:
			if t.Payload == 0 || int(t.Payload) >= len(in.tuples) {
				return nil, fmt.Errorf("types: tuple type#%d has bad payload %d", id, t.Payload)
			}
			in.tupleIdx[tupleKey(in.tuples[t.Payload].Elems)] = id
		case KindProduct, KindView:
			if t.Payload == 0 || int(t.Payload) >= len(in.nominals) {
				return nil, fmt.Errorf("types: nominal type#%d has bad payload %d", id, t.Payload)
			}
		}
		if _, dup := in.index[typeKey(t)]; !dup {
			in.index[typeKey(t)] = id
		}
	}

	in.builtins.Invalid = NoTypeID
	in.builtins.Error = in.Intern(Type{Kind: KindError})
	in.builtins.Unresolved = in.Intern(Type{Kind: KindUnresolved})
	in.builtins.IntLiteral = in.Intern(Type{Kind: KindBuiltinIntLiteral})
	in.builtins.Unit = in.Tuple(nil)
	in.builtins.Bool = in.Intern(MakeBuiltinInt(1))
	in.named[intLiteralName] = in.builtins.IntLiteral
	in.named["i1"] = in.builtins.Bool
	return in, nil
}
