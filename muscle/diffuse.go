package muscle

// Diffuse spreads hormone from every patch to its neighbors with
// simultaneous-update semantics: shares are computed from a snapshot taken
// before any patch is touched, then applied to the live values.
//
// Each patch sends snapshot*DiffuseRate/MaxNeighbors to every neighbor that
// exists and loses exactly what it sent. The divisor is always MaxNeighbors,
// so edge and corner patches export less than DiffuseRate of their mass.
// Totals are conserved; only clamping afterwards changes them.
func (g *Grid) Diffuse() {
	g.snapshotHormones()
	for i := range g.patches {
		g.exportFrom(i)
	}
}

func (g *Grid) snapshotHormones() {
	for i := range g.patches {
		g.snapAnabolic[i] = g.patches[i].Anabolic
		g.snapCatabolic[i] = g.patches[i].Catabolic
	}
}

// exportFrom moves patch i's snapshot shares to its neighbors.
func (g *Grid) exportFrom(i int) {
	perNeighbor := g.params.DiffuseRate / float64(g.params.MaxNeighbors)
	shareA := g.snapAnabolic[i] * perNeighbor
	shareC := g.snapCatabolic[i] * perNeighbor

	nbrs := g.neighbors[i]
	for _, n := range nbrs {
		g.patches[n].Anabolic += shareA
		g.patches[n].Catabolic += shareC
	}

	k := float64(len(nbrs))
	g.patches[i].Anabolic -= shareA * k
	g.patches[i].Catabolic -= shareC * k
}
