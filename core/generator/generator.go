package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"scanledger/core/block"
)

const (
	maxPatients  = 1000
	minCost      = 100
	maxCost      = 2000
	lookbackDays = 365
	// one in ten generated transactions has an empty patient name
	emptyNameRate = 0.1
)

// Generator produces synthetic scan transactions for demos and tests.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New returns a generator drawing from rng. Pass a seeded source for
// reproducible output.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// WithClock fixes the reference time visit dates are drawn back from.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// PatientName returns Patient_<1..1000>, or "" about 10% of the time.
func (g *Generator) PatientName() string {
	if g.rng.Float64() < emptyNameRate {
		return ""
	}
	return fmt.Sprintf("Patient_%d", g.rng.Intn(maxPatients)+1)
}

// RandomTransaction draws one transaction. The plaintext name is retained.
func (g *Generator) RandomTransaction() block.Transaction {
	name := g.PatientName()
	scan := block.ScanTypes[g.rng.Intn(len(block.ScanTypes))]
	part := block.BodyParts[g.rng.Intn(len(block.BodyParts))]
	cost := block.NewCost(decimal.NewFromFloat(minCost + g.rng.Float64()*(maxCost-minCost)))
	visit := block.DateOf(g.now().AddDate(0, 0, -g.rng.Intn(lookbackDays+1)))
	return block.NewTransaction(name, scan, part, cost, visit, true)
}

// GenerateChain builds a correctly linked chain of n random transactions,
// each block stamped one second after the previous.
func (g *Generator) GenerateChain(n int, now time.Time) []block.Block {
	var chain []block.Block
	for i := 0; i < n; i++ {
		chain = block.Append(chain, g.RandomTransaction(), now.Add(time.Duration(i)*time.Second))
	}
	return chain
}
