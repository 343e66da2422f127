// Package engine implements the Search Engine: the iteration loop that
// drives selection, parallel expansion/simulation/scoring, sequential
// integration, and periodic pruning over a forest of root node.Node trees
// (spec.md §4.4), grounded on the teacher framework's orchestration.ScatterGather
// fan-out/join pattern and on original_source/app/services/mcts/algorithm.py
// for the iteration order and statistics bookkeeping.
package engine

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Config holds the tunable parameters for one Run call (spec.md §4.1).
type Config struct {
	Iterations            int     `validate:"required,min=1"`
	SimulationDepth       int     `validate:"required,min=1"`
	NumBranches           int     `validate:"required,min=1"`
	ExplorationConstant   float64 `validate:"gte=0"`
	MaxTokens             int     `validate:"required,min=1"`
	MaxChildren           int     `validate:"required,min=1"`
	PruningInterval       int     `validate:"required,min=1"`
	PruningThresholdRatio float64 `validate:"gte=0"`
	MinVisitsForPruning   int     `validate:"min=0"`
	Goal                  string
}

// DefaultConfig returns the default search parameters, carried from
// original_source/app/services/mcts/algorithm.py's MCTSConfig defaults.
func DefaultConfig() Config {
	return Config{
		Iterations:            50,
		SimulationDepth:       3,
		NumBranches:           3,
		ExplorationConstant:   1.414,
		MaxTokens:             500,
		MaxChildren:           3,
		PruningInterval:       5,
		PruningThresholdRatio: 0.7,
		MinVisitsForPruning:   5,
		Goal:                  "",
	}
}

// Validate checks cfg against its struct tags.
func (cfg Config) Validate() error {
	return validate.Struct(cfg)
}

// Stats is the mcts_statistics block reported after a Run (spec.md §4.4).
type Stats struct {
	TotalIterations      int
	NodesCreated         int
	NodesEvaluated       int
	PrunedBranches       int
	ParallelEvaluations  int
	AverageDepthExplored float64
}
