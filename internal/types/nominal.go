package types

import (
	"fmt"

	"fortio.org/safecast"
)

// NominalInfo stores metadata for a declared product or view type.
type NominalInfo struct {
	Name string
	// Decl is the front end's opaque declaration handle.
	Decl uint32
}

// RegisterProduct allocates a nominal product type slot and returns its TypeID.
func (in *Interner) RegisterProduct(name string, decl uint32) TypeID {
	return in.registerNominal(KindProduct, name, decl)
}

// RegisterView allocates a nominal view type slot and returns its TypeID.
func (in *Interner) RegisterView(name string, decl uint32) TypeID {
	return in.registerNominal(KindView, name, decl)
}

func (in *Interner) registerNominal(kind Kind, name string, decl uint32) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.nominals = append(in.nominals, NominalInfo{Name: name, Decl: decl})
	slot, err := safecast.Conv[uint32](len(in.nominals) - 1)
	if err != nil {
		panic(fmt.Errorf("nominal info overflow: %w", err))
	}
	return in.internLocked(Type{Kind: kind, Payload: slot})
}

// NominalInfo returns metadata for a product or view TypeID.
func (in *Interner) NominalInfo(id TypeID) (NominalInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || !tt.Kind.IsNominal() {
		return NominalInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.nominals) {
		return NominalInfo{}, false
	}
	return in.nominals[tt.Payload], true
}
