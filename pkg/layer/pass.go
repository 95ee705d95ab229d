package layer

import "go.uber.org/zap"

// PassResult collects the outputs of one update pass. It is only valid to
// hand to painting and compositing consumers once UpdatePass has returned.
type PassResult struct {
	Positions    PositionResult
	Requirements RequirementsResult
	Backing      BackingResult
}

// UpdatePass brings the attached tree up to date: positions, then paint-order
// lists, then descendant status, then the compositing requirements walk and
// finally the backing walk.
func (t *Tree) UpdatePass() PassResult {
	t.checkMutationAllowed()
	var res PassResult
	rebuilds := t.listRebuilds
	res.Positions = t.UpdateLayerPositions(t.root)
	t.UpdateLayerLists(t.root)
	t.updateDescendantDependentFlags(t.root)
	t.update3DTransformedDescendantStatusTree(t.root)
	res.Requirements = t.UpdateCompositingRequirements(t.root)
	res.Backing = t.UpdateBackingAndHierarchy(t.root)

	t.log.Debug("update pass complete",
		zap.Int("layers", t.Len()),
		zap.Int("positioned", len(res.Positions.Updated)),
		zap.Int("listRebuilds", t.listRebuilds-rebuilds),
		zap.Int("compositingChanges", len(res.Requirements.Changed)),
		zap.Int("requirementsVisited", len(res.Requirements.Visited)),
		zap.Int("backingVisited", len(res.Backing.Visited)))

	if t.assertions {
		if err := t.Verify(); err != nil {
			t.log.Error("invariant check failed", zap.Error(err))
			panic(err)
		}
	}
	return res
}

func (t *Tree) update3DTransformedDescendantStatusTree(id ID) {
	t.update3DTransformedDescendantStatus(id)
	for c := t.get(id).first; !c.IsNone(); c = t.get(c).next {
		t.update3DTransformedDescendantStatusTree(c)
	}
}

func layerField(t *Tree, id ID) zap.Field {
	return zap.String("layer", t.get(id).name)
}
