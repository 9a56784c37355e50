// Package ga implements the genetic algorithm that retunes every
// traffic light's green/red durations: tournament selection, uniform
// crossover, Gaussian mutation, and elitism over a population of
// Chromosomes.
package ga

// Gene is one traffic light's (green, red) timing pair. Yellow is not
// part of the chromosome: it is fixed at 3.0s everywhere.
type Gene struct {
	Green float64
	Red   float64
}

// Chromosome is an ordered sequence of genes, one per (road, lane) in
// the deterministic iteration order the network was snapshotted in.
type Chromosome struct {
	Genes   []Gene
	Fitness float64
}

// Clone returns a deep copy so callers can mutate one chromosome
// without aliasing another's gene slice.
func (c Chromosome) Clone() Chromosome {
	genes := make([]Gene, len(c.Genes))
	copy(genes, c.Genes)
	return Chromosome{Genes: genes, Fitness: c.Fitness}
}
