package router

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/nao1215/golddust/internal/model"
)

// minLatencyMS is the lowest latency a sample can report.
const minLatencyMS = 1.0

// kindProfile describes the synthetic health characteristics of a backend family.
type kindProfile struct {
	baseLatencyMS  float64
	jitterMS       float64 // symmetric: latency varies within ±jitterMS
	maxFailureRate float64 // failure rate is drawn from [0, maxFailureRate)
}

// profiles holds the per-kind characteristics. Oxen is fast but its failure
// range straddles the policy ceiling; Tor is slow and stays below it.
var profiles = map[model.BackendKind]kindProfile{
	model.KindOxen: {baseLatencyMS: 60, jitterMS: 20, maxFailureRate: 0.06},
	model.KindTor:  {baseLatencyMS: 250, jitterMS: 80, maxFailureRate: 0.04},
}

// Sampler produces a health snapshot for a backend.
// Implementations must return a new snapshot on every call and must be safe
// for concurrent use.
type Sampler interface {
	Sample(id model.BackendIdentity) model.BackendHealth
}

// uniform is the subset of *rand.Rand used by sample.
type uniform interface {
	Float64() float64
}

// sample draws one snapshot for id from src.
func sample(id model.BackendIdentity, src uniform) model.BackendHealth {
	p := profiles[id.Kind]

	// Draw both values in a fixed order so that a seeded source always
	// yields the same pair.
	jitter := (src.Float64()*2 - 1) * p.jitterMS
	failure := src.Float64() * p.maxFailureRate

	latency := p.baseLatencyMS + jitter
	if latency < minLatencyMS {
		latency = minLatencyMS
	}

	return model.BackendHealth{
		Name:        id.Name,
		Kind:        id.Kind,
		LatencyMS:   latency,
		FailureRate: failure,
		Enabled:     true, // registry membership already encodes enablement
	}
}

// SeededSampler produces reproducible snapshots.
//
// Every call derives a fresh PCG generator from the seed and an FNV-1a hash
// of the backend name, so a given backend always reports the same health for
// a given seed, across calls and across runs, independent of registry order.
type SeededSampler struct {
	seed uint64
}

// NewSeededSampler returns a SeededSampler using seed.
func NewSeededSampler(seed uint64) *SeededSampler {
	return &SeededSampler{seed: seed}
}

// Sample implements Sampler.
func (s *SeededSampler) Sample(id model.BackendIdentity) model.BackendHealth {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id.Name)) // hash.Hash never returns an error
	return sample(id, rand.New(rand.NewPCG(s.seed, h.Sum64())))
}

// RandomSampler produces snapshots that vary from call to call and from run
// to run. It uses the runtime's goroutine-safe generator.
type RandomSampler struct{}

// NewRandomSampler returns a RandomSampler.
func NewRandomSampler() *RandomSampler {
	return &RandomSampler{}
}

// globalSource adapts the top-level math/rand/v2 functions to uniform.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Sample implements Sampler.
func (*RandomSampler) Sample(id model.BackendIdentity) model.BackendHealth {
	return sample(id, globalSource{})
}
