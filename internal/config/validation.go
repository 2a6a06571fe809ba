/*
Package config provides validation helpers for recommender configuration.

This file contains shared validation functions used by CLI commands
to detect and prevent configuration issues.
*/
package config

import "fmt"

// Validate checks a configuration for values the engine would reject.
// Absent sections are fine; the engine resolves them to defaults.
func Validate(cfg *Config) error {
	if cfg.Weights != nil && !cfg.Weights.Valid() {
		return fmt.Errorf("weights: every weight must be in [0,1] and the set must sum to 1 (got sum %.3f)", cfg.Weights.Sum())
	}

	if cfg.Cache != nil {
		if cfg.Cache.RecommendationsTTLSeconds < 0 ||
			cfg.Cache.ContextTTLSeconds < 0 ||
			cfg.Cache.BehaviorTTLSeconds < 0 {
			return fmt.Errorf("cache: TTLs must not be negative")
		}
		if cfg.Cache.MaxEntries < 0 {
			return fmt.Errorf("cache: maxEntries must not be negative")
		}
	}

	if cfg.Learning != nil {
		if cfg.Learning.LearningRate < 0 || cfg.Learning.LearningRate > 1 {
			return fmt.Errorf("learning: learningRate must be in [0,1], got %.3f", cfg.Learning.LearningRate)
		}
		if cfg.Learning.NewUserThreshold < 0 {
			return fmt.Errorf("learning: newUserThreshold must not be negative")
		}
		if cfg.Learning.HistoryLimit < 0 {
			return fmt.Errorf("learning: historyLimit must not be negative")
		}
	}

	if cfg.Scoring != nil {
		if cfg.Scoring.ColdStartBaseline < 0 || cfg.Scoring.ColdStartBaseline > 0.3 {
			return fmt.Errorf("scoring: coldStartBaseline must be in [0,0.3], got %.3f", cfg.Scoring.ColdStartBaseline)
		}
		if cfg.Scoring.ContentFloor < 0 || cfg.Scoring.ContentFloor > 1 {
			return fmt.Errorf("scoring: contentFloor must be in [0,1], got %.3f", cfg.Scoring.ContentFloor)
		}
		if cfg.Scoring.BehavioralDecay < 0 || cfg.Scoring.BehavioralDecay >= 1 {
			return fmt.Errorf("scoring: behavioralDecay must be in [0,1), got %.3f", cfg.Scoring.BehavioralDecay)
		}
	}

	if cfg.Settings != nil && cfg.Settings.MaxResults < 0 {
		return fmt.Errorf("settings: maxResults must not be negative")
	}

	return nil
}
