package ga

import "testing"

func testConfig() Config {
	return Config{
		PopulationSize: 10, Generations: 5, MutationRate: 0.2, MutationStdDev: 1.0,
		CrossoverRate: 0.7, TournamentSize: 3, ElitismRate: 0.2,
		MinGreen: 5, MaxGreen: 60, MinRed: 5, MaxRed: 60, Seed: 42,
	}
}

func TestInitializePopulationRespectsGeneBounds(t *testing.T) {
	g := New(testConfig())
	pop := g.InitializePopulation(3)
	if len(pop) != 10 {
		t.Fatalf("expected population size 10, got %d", len(pop))
	}
	for _, c := range pop {
		if len(c.Genes) != 3 {
			t.Fatalf("expected 3 genes per chromosome, got %d", len(c.Genes))
		}
		for _, gene := range c.Genes {
			if gene.Green < 5 || gene.Green > 60 || gene.Red < 5 || gene.Red > 60 {
				t.Fatalf("gene out of configured bounds: %+v", gene)
			}
		}
	}
}

func TestEvolveIsDeterministicGivenFixedSeed(t *testing.T) {
	fitnessFn := func(c Chromosome) float64 {
		sum := 0.0
		for _, g := range c.Genes {
			sum += g.Green + g.Red
		}
		return sum
	}

	a := New(testConfig())
	resultA := a.Evolve(4, fitnessFn)

	b := New(testConfig())
	resultB := b.Evolve(4, fitnessFn)

	if len(resultA.Genes) != len(resultB.Genes) {
		t.Fatalf("gene count mismatch between identically-seeded runs")
	}
	for i := range resultA.Genes {
		if resultA.Genes[i] != resultB.Genes[i] {
			t.Fatalf("expected identical chromosomes for identical seeds, gene %d differs: %+v vs %+v",
				i, resultA.Genes[i], resultB.Genes[i])
		}
	}
}

func TestEvolveMinimizesFitness(t *testing.T) {
	fitnessFn := func(c Chromosome) float64 {
		sum := 0.0
		for _, g := range c.Genes {
			sum += g.Green + g.Red
		}
		return sum
	}

	cfg := testConfig()
	cfg.MinGreen, cfg.MaxGreen = 5, 60
	cfg.MinRed, cfg.MaxRed = 5, 60
	g := New(cfg)
	best := g.Evolve(2, fitnessFn)

	// The global minimum for this fitness is 2*(MinGreen+MinRed)=20 and the
	// maximum is 2*(MaxGreen+MaxRed)=240; the evolved best must beat the maximum.
	worstPossible := 2 * (60.0 + 60.0)
	if fitnessFn(best) >= worstPossible {
		t.Fatalf("expected evolution to improve on the worst possible fitness %v, got %v", worstPossible, fitnessFn(best))
	}
}

func TestFitnessHistoryIsMonotonicallyNonIncreasing(t *testing.T) {
	fitnessFn := func(c Chromosome) float64 {
		sum := 0.0
		for _, gene := range c.Genes {
			sum += gene.Green
		}
		return sum
	}

	g := New(testConfig())
	g.Evolve(3, fitnessFn)
	history := g.FitnessHistory()

	if len(history) == 0 {
		t.Fatalf("expected non-empty fitness history")
	}
	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1] {
			t.Fatalf("fitness history regressed at generation %d: %v -> %v", i, history[i-1], history[i])
		}
	}
}

func TestEliteCountFloorsAtOne(t *testing.T) {
	cfg := testConfig()
	cfg.ElitismRate = 0
	cfg.PopulationSize = 5
	g := New(cfg)
	if n := g.eliteCount(); n != 1 {
		t.Fatalf("expected elite count to floor at 1, got %d", n)
	}
}

func TestClampKeepsGenesWithinConfiguredRange(t *testing.T) {
	g := New(testConfig())
	clamped := g.clamp(Gene{Green: 1000, Red: -5})
	if clamped.Green != 60 || clamped.Red != 5 {
		t.Fatalf("expected clamp to bound gene to [MinGreen,MaxGreen]x[MinRed,MaxRed], got %+v", clamped)
	}
}
