/*
Package config handles loading, saving, and validating tool-recommender
configuration.

Configuration is stored in ~/.tool-recommender.json in camelCase JSON.

Schema:

	{
	  "catalogPath": "/path/to/catalog.json",
	  "databasePath": "/path/to/feedback.db",
	  "weights": {
	    "collaborative": 0.3,
	    "contentBased": 0.25,
	    "contextual": 0.2,
	    "temporal": 0.15,
	    "behavioral": 0.1
	  },
	  "cache": {
	    "recommendationsTTLSeconds": 300,
	    "contextTTLSeconds": 900,
	    "behaviorTTLSeconds": 3600,
	    "maxEntries": 1024
	  },
	  "learning": {
	    "learningRate": 0.1,
	    "newUserThreshold": 3,
	    "historyLimit": 20,
	    "affinityCeiling": 1.0
	  },
	  "scoring": {
	    "coldStartBaseline": 0.25,
	    "contentFloor": 0.2,
	    "behavioralDecay": 0.8
	  },
	  "settings": {
	    "maxResults": 5,
	    "fallbackTools": ["safe-default"],
	    "persistFeedback": true
	  }
	}
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/engine"
	"github.com/khanglvm/tool-recommender/internal/feedback"
	"github.com/khanglvm/tool-recommender/internal/reccache"
	"github.com/khanglvm/tool-recommender/internal/scoring"
	"github.com/khanglvm/tool-recommender/internal/storage"
)

// Config represents the root configuration structure.
type Config struct {
	// CatalogPath points to the JSON candidate catalog file.
	CatalogPath string `json:"catalogPath,omitempty"`

	// DatabasePath points to the feedback database; empty uses the
	// default location under the home directory.
	DatabasePath string `json:"databasePath,omitempty"`

	// Weights overrides the default algorithm weights.
	Weights *scoring.Weights `json:"weights,omitempty"`

	// Cache tunes the recommendation cache classes.
	Cache *CacheSettings `json:"cache,omitempty"`

	// Learning tunes the feedback adaptation loop.
	Learning *LearningSettings `json:"learning,omitempty"`

	// Scoring tunes the individual scorers.
	Scoring *ScoringSettings `json:"scoring,omitempty"`

	// Settings contains remaining engine options.
	Settings *Settings `json:"settings,omitempty"`
}

// CacheSettings sizes the cache classes, in seconds for JSON friendliness.
type CacheSettings struct {
	RecommendationsTTLSeconds int   `json:"recommendationsTTLSeconds,omitempty"`
	ContextTTLSeconds         int   `json:"contextTTLSeconds,omitempty"`
	BehaviorTTLSeconds        int   `json:"behaviorTTLSeconds,omitempty"`
	MaxEntries                int64 `json:"maxEntries,omitempty"`
}

// LearningSettings tunes how feedback reshapes user profiles.
type LearningSettings struct {
	LearningRate     float64 `json:"learningRate,omitempty"`
	NewUserThreshold int     `json:"newUserThreshold,omitempty"`
	HistoryLimit     int     `json:"historyLimit,omitempty"`
	AffinityFloor    float64 `json:"affinityFloor,omitempty"`
	AffinityCeiling  float64 `json:"affinityCeiling,omitempty"`
}

// ScoringSettings tunes the individual scorers.
type ScoringSettings struct {
	ColdStartBaseline float64 `json:"coldStartBaseline,omitempty"`
	ContentFloor      float64 `json:"contentFloor,omitempty"`
	BehavioralDecay   float64 `json:"behavioralDecay,omitempty"`
}

// Settings contains global engine options.
type Settings struct {
	// MaxResults is the default result cap per request.
	MaxResults int `json:"maxResults,omitempty"`

	// FallbackTools are returned when the catalog is unavailable.
	FallbackTools []string `json:"fallbackTools,omitempty"`

	// PersistFeedback enables the on-disk feedback store.
	PersistFeedback bool `json:"persistFeedback,omitempty"`
}

// NewConfig creates a configuration with the documented defaults.
func NewConfig() *Config {
	weights := scoring.DefaultWeights()
	return &Config{
		Weights: &weights,
		Cache: &CacheSettings{
			RecommendationsTTLSeconds: 300,
			ContextTTLSeconds:         900,
			BehaviorTTLSeconds:        3600,
			MaxEntries:                1024,
		},
		Learning: &LearningSettings{
			LearningRate:     0.1,
			NewUserThreshold: 3,
			HistoryLimit:     20,
			AffinityCeiling:  1.0,
		},
		Scoring: &ScoringSettings{
			ColdStartBaseline: 0.25,
			ContentFloor:      0.2,
			BehavioralDecay:   0.8,
		},
		Settings: &Settings{
			MaxResults:      5,
			PersistFeedback: true,
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.tool-recommender.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tool-recommender.json"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadOrDefault reads the default config, falling back to defaults when the
// file does not exist yet.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return NewConfig()
	}
	return cfg
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.Options{}

	if c.Weights != nil {
		opts.DefaultWeights = *c.Weights
	}

	if c.Cache != nil {
		opts.Cache = reccache.Config{
			Recommendations: reccache.ClassConfig{
				TTL:        time.Duration(c.Cache.RecommendationsTTLSeconds) * time.Second,
				MaxEntries: c.Cache.MaxEntries,
			},
			Context: reccache.ClassConfig{
				TTL:        time.Duration(c.Cache.ContextTTLSeconds) * time.Second,
				MaxEntries: c.Cache.MaxEntries,
			},
			Behavior: reccache.ClassConfig{
				TTL:        time.Duration(c.Cache.BehaviorTTLSeconds) * time.Second,
				MaxEntries: c.Cache.MaxEntries,
			},
		}
	}

	if c.Learning != nil {
		opts.Feedback = feedback.Options{
			LearningRate:     c.Learning.LearningRate,
			NewUserThreshold: c.Learning.NewUserThreshold,
			HistoryLimit:     c.Learning.HistoryLimit,
			AffinityFloor:    c.Learning.AffinityFloor,
			AffinityCeiling:  c.Learning.AffinityCeiling,
		}
	}

	if c.Scoring != nil {
		opts.Scorers = scoring.ScorerOptions{
			ColdStartBaseline: c.Scoring.ColdStartBaseline,
			ContentFloor:      c.Scoring.ContentFloor,
			BehavioralDecay:   c.Scoring.BehavioralDecay,
		}
	}

	if c.Settings != nil {
		opts.DefaultMaxResults = c.Settings.MaxResults
		for _, id := range c.Settings.FallbackTools {
			opts.FallbackTools = append(opts.FallbackTools, catalog.Candidate{ID: id, Name: id})
		}
		if c.Settings.PersistFeedback {
			if c.DatabasePath != "" {
				opts.Storage = storage.NewStoreAt(c.DatabasePath)
			} else {
				opts.Storage = storage.NewStore()
			}
		}
	}

	return opts
}
