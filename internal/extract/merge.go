package extract

import "github.com/quantmind-br/cargomirror-go/internal/cargo"

// structure indices merged key-by-key with incoming winning
var structureIndices = []string{"bySort", "indexById", "liveIndexes"}

// Merge combines two states into a new one; neither input is modified.
//
// Top-level keys from incoming overwrite base, except: site and
// frontendState keep the base value when present; css keeps the longer
// stylesheet; pages, sets and media merge their byId records with
// fill-missing semantics; structure unions byParent child lists in base
// order.
func Merge(base, incoming *cargo.State) *cargo.State {
	b := base.Clone().Root()
	in := incoming.Clone().Root()

	out := b.Copy()
	for key, v := range in {
		out[key] = v
	}

	for _, key := range []string{cargo.KeySite, cargo.KeyFrontendState} {
		if v, ok := b[key]; ok && v != nil {
			out[key] = v
		}
	}

	if hasKey(b, in, cargo.KeyCSS) {
		out[cargo.KeyCSS] = mergeCSS(b.Object(cargo.KeyCSS), in.Object(cargo.KeyCSS))
	}

	for _, key := range []string{cargo.KeyPages, cargo.KeySets, cargo.KeyMedia} {
		if hasKey(b, in, key) {
			out[key] = mergeAggregate(b.Object(key), in.Object(key))
		}
	}

	if hasKey(b, in, cargo.KeyStructure) {
		out[cargo.KeyStructure] = mergeStructure(b.Object(cargo.KeyStructure), in.Object(cargo.KeyStructure))
	}

	return cargo.NewState(out)
}

func hasKey(base, incoming cargo.Object, key string) bool {
	_, inBase := base[key]
	_, inIncoming := incoming[key]
	return inBase || inIncoming
}

// shallow overlays incoming onto a copy of base.
func shallow(base, incoming cargo.Object) cargo.Object {
	out := base.Copy()
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

func mergeCSS(base, incoming cargo.Object) map[string]any {
	out := shallow(base, incoming)
	stylesheet := base.String(cargo.KeyStylesheet)
	if other := incoming.String(cargo.KeyStylesheet); len(other) > len(stylesheet) {
		stylesheet = other
	}
	out[cargo.KeyStylesheet] = stylesheet
	return map[string]any(out)
}

func mergeAggregate(base, incoming cargo.Object) map[string]any {
	out := shallow(base, incoming)
	out[cargo.KeyByID] = map[string]any(mergeRecords(base.Object(cargo.KeyByID), incoming.Object(cargo.KeyByID)))
	return map[string]any(out)
}

func mergeRecords(base, incoming cargo.Object) cargo.Object {
	out := base.Copy()
	for id, v := range incoming {
		current, exists := out[id]
		if !exists {
			out[id] = v
			continue
		}
		baseRec, baseOK := cargo.AsObject(current)
		inRec, inOK := cargo.AsObject(v)
		switch {
		case baseOK && inOK:
			out[id] = map[string]any(FillMissing(baseRec, inRec))
		case cargo.IsMissing(current):
			out[id] = v
		}
	}
	return out
}

// FillMissing returns a copy of base where every key absent or missing in
// base takes the incoming value, unless that value is itself missing.
func FillMissing(base, incoming cargo.Object) cargo.Object {
	out := base.Copy()
	for k, v := range incoming {
		current, exists := out[k]
		if !exists || (cargo.IsMissing(current) && !cargo.IsMissing(v)) {
			out[k] = v
		}
	}
	return out
}

func mergeStructure(base, incoming cargo.Object) map[string]any {
	out := shallow(base, incoming)

	for _, key := range structureIndices {
		if hasKey(base, incoming, key) {
			out[key] = map[string]any(shallow(base.Object(key), incoming.Object(key)))
		}
	}

	baseParents := base.Object(cargo.KeyByParent)
	byParent := baseParents.Copy()
	for parentID, children := range incoming.Object(cargo.KeyByParent) {
		merged := cargo.MergeUnique(cargo.StringList(baseParents[parentID]), cargo.StringList(children))
		byParent[parentID] = cargo.ToAnyList(merged)
	}
	out[cargo.KeyByParent] = map[string]any(byParent)

	return map[string]any(out)
}
