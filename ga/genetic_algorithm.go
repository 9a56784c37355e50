package ga

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// FitnessFunc evaluates one chromosome and returns its fitness (lower
// is better). Implementations are free to parallelize across calls;
// the GA itself only requires each call be independent.
type FitnessFunc func(Chromosome) float64

// Config bundles every tunable of one GA run, normally sourced from
// config.GAConfig.
type Config struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	MutationStdDev float64
	CrossoverRate  float64
	TournamentSize int
	ElitismRate    float64
	MinGreen       float64
	MaxGreen       float64
	MinRed         float64
	MaxRed         float64
	Seed           uint64
}

// GeneticAlgorithm evolves a population of Chromosomes against a
// supplied fitness function.
type GeneticAlgorithm struct {
	cfg            Config
	rng            *rand.Rand
	normal         distuv.Normal
	fitnessHistory []float64
	best           Chromosome
	haveBest       bool
}

// New builds a GeneticAlgorithm with a deterministic RNG derived from
// cfg.Seed; given the same seed and a deterministic fitness function,
// Evolve is reproducible.
func New(cfg Config) *GeneticAlgorithm {
	src := rand.NewSource(cfg.Seed)
	rng := rand.New(src)
	return &GeneticAlgorithm{
		cfg:    cfg,
		rng:    rng,
		normal: distuv.Normal{Mu: 0, Sigma: cfg.MutationStdDev, Src: src},
	}
}

func (g *GeneticAlgorithm) randomGene() Gene {
	green := g.cfg.MinGreen + g.rng.Float64()*(g.cfg.MaxGreen-g.cfg.MinGreen)
	red := g.cfg.MinRed + g.rng.Float64()*(g.cfg.MaxRed-g.cfg.MinRed)
	return Gene{Green: green, Red: red}
}

// InitializePopulation returns populationSize chromosomes of geneCount
// independently-drawn uniform-random genes within configured bounds.
func (g *GeneticAlgorithm) InitializePopulation(geneCount int) []Chromosome {
	pop := make([]Chromosome, g.cfg.PopulationSize)
	for i := range pop {
		genes := make([]Gene, geneCount)
		for j := range genes {
			genes[j] = g.randomGene()
		}
		pop[i] = Chromosome{Genes: genes}
	}
	return pop
}

func (g *GeneticAlgorithm) clamp(gene Gene) Gene {
	if gene.Green < g.cfg.MinGreen {
		gene.Green = g.cfg.MinGreen
	}
	if gene.Green > g.cfg.MaxGreen {
		gene.Green = g.cfg.MaxGreen
	}
	if gene.Red < g.cfg.MinRed {
		gene.Red = g.cfg.MinRed
	}
	if gene.Red > g.cfg.MaxRed {
		gene.Red = g.cfg.MaxRed
	}
	return gene
}

func (g *GeneticAlgorithm) tournamentSelect(pop []Chromosome) Chromosome {
	size := g.cfg.TournamentSize
	if size < 2 {
		size = 2
	}
	best := pop[g.rng.Intn(len(pop))]
	for i := 1; i < size; i++ {
		candidate := pop[g.rng.Intn(len(pop))]
		if candidate.Fitness < best.Fitness {
			best = candidate
		}
	}
	return best
}

func (g *GeneticAlgorithm) crossover(a, b Chromosome) Chromosome {
	child := Chromosome{Genes: make([]Gene, len(a.Genes))}
	for i := range child.Genes {
		if g.rng.Float64() < 0.5 {
			child.Genes[i] = a.Genes[i]
		} else {
			child.Genes[i] = b.Genes[i]
		}
	}
	return child
}

func (g *GeneticAlgorithm) mutate(c Chromosome) Chromosome {
	for i, gene := range c.Genes {
		if g.rng.Float64() < g.cfg.MutationRate {
			gene.Green += g.normal.Rand()
			gene.Red += g.normal.Rand()
			c.Genes[i] = g.clamp(gene)
		}
	}
	return c
}

// eliteCount returns floor(populationSize*elitismRate), at least 1 so
// one elite always survives even when the product rounds to zero.
func (g *GeneticAlgorithm) eliteCount() int {
	n := int(float64(g.cfg.PopulationSize) * g.cfg.ElitismRate)
	if n < 1 {
		n = 1
	}
	if n > g.cfg.PopulationSize {
		n = g.cfg.PopulationSize
	}
	return n
}

// Evolve runs cfg.Generations rounds of selection, crossover, mutation,
// and elitism, returning the best chromosome found across the whole
// run. fitness is invoked once per chromosome per generation.
func (g *GeneticAlgorithm) Evolve(geneCount int, fitness FitnessFunc) Chromosome {
	pop := g.InitializePopulation(geneCount)

	for gen := 0; gen < g.cfg.Generations; gen++ {
		for i := range pop {
			pop[i].Fitness = fitness(pop[i])
		}
		sort.Slice(pop, func(i, j int) bool { return pop[i].Fitness < pop[j].Fitness })

		g.fitnessHistory = append(g.fitnessHistory, pop[0].Fitness)
		if !g.haveBest || pop[0].Fitness < g.best.Fitness {
			g.best = pop[0].Clone()
			g.haveBest = true
		}

		elite := g.eliteCount()
		next := make([]Chromosome, 0, len(pop))
		for i := 0; i < elite; i++ {
			next = append(next, pop[i].Clone())
		}

		for len(next) < len(pop) {
			parentA := g.tournamentSelect(pop)
			var child Chromosome
			if g.rng.Float64() < g.cfg.CrossoverRate {
				parentB := g.tournamentSelect(pop)
				child = g.crossover(parentA, parentB)
			} else {
				child = parentA.Clone()
			}
			child = g.mutate(child)
			next = append(next, child)
		}
		pop = next
	}

	// Score the final generation so FitnessHistory/best reflect it too.
	for i := range pop {
		pop[i].Fitness = fitness(pop[i])
	}
	sort.Slice(pop, func(i, j int) bool { return pop[i].Fitness < pop[j].Fitness })
	g.fitnessHistory = append(g.fitnessHistory, pop[0].Fitness)
	if !g.haveBest || pop[0].Fitness < g.best.Fitness {
		g.best = pop[0].Clone()
		g.haveBest = true
	}

	return g.best
}

// FitnessHistory returns the best-of-generation fitness recorded each
// generation; by construction it is monotonically non-increasing.
func (g *GeneticAlgorithm) FitnessHistory() []float64 {
	return append([]float64(nil), g.fitnessHistory...)
}
