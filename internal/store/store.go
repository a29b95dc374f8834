// Package store holds the static sales fixture the dashboard aggregates over.
//
// A Store is validated once at construction and never mutated afterwards, so it
// can be shared by any number of concurrent readers without locking.
package store

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"velocity-dashboard/internal/models"
)

// MonthsPerYear is the length every monthly series must have.
const MonthsPerYear = 12

var ErrInvalidFixture = errors.New("invalid fixture")

//go:embed fixture.yaml
var defaultFixture []byte

// Fixture is the on-disk shape of the dataset.
type Fixture struct {
	Company     models.Company              `yaml:"company"`
	Months      []string                    `yaml:"months"`
	Regions     []models.Region             `yaml:"regions"`
	Models      []models.Model              `yaml:"models"`
	Sales       map[string]map[string][]int `yaml:"sales"`
	Dealers     []models.Dealer             `yaml:"dealers"`
	MarketShare models.MarketShare          `yaml:"market_share"`
}

type Store struct {
	company     models.Company
	months      []string
	regions     []models.Region
	models      []models.Model
	dealers     []models.Dealer
	marketShare models.MarketShare

	regionIdx map[string]int
	modelIdx  map[string]int
	// units[region][model][month]
	units [][][MonthsPerYear]int
}

// Default builds the store from the embedded fixture.
func Default() (*Store, error) {
	return Parse(defaultFixture)
}

// Open builds the store from a YAML fixture file.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Store, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidFixture, err)
	}
	return New(f)
}

// New validates f and builds an immutable Store from it.
func New(f Fixture) (*Store, error) {
	if len(f.Months) != MonthsPerYear {
		return nil, fmt.Errorf("%w: expected %d month labels, got %d", ErrInvalidFixture, MonthsPerYear, len(f.Months))
	}
	if len(f.Regions) == 0 {
		return nil, fmt.Errorf("%w: no regions", ErrInvalidFixture)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalidFixture)
	}

	s := &Store{
		company:   f.Company,
		months:    slices.Clone(f.Months),
		regionIdx: make(map[string]int, len(f.Regions)),
		modelIdx:  make(map[string]int, len(f.Models)),
	}

	for i, r := range f.Regions {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: region %d has no name", ErrInvalidFixture, i)
		}
		if _, dup := s.regionIdx[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidFixture, r.Name)
		}
		if r.Target <= 0 {
			return nil, fmt.Errorf("%w: region %q target must be positive", ErrInvalidFixture, r.Name)
		}
		r.States = slices.Clone(r.States)
		s.regionIdx[r.Name] = i
		s.regions = append(s.regions, r)
	}

	for i, m := range f.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: model %d has no id", ErrInvalidFixture, i)
		}
		if _, dup := s.modelIdx[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate model %q", ErrInvalidFixture, m.ID)
		}
		if m.Price < 0 {
			return nil, fmt.Errorf("%w: model %q has negative price", ErrInvalidFixture, m.ID)
		}
		if m.Margin < 0 || m.Margin > 1 {
			return nil, fmt.Errorf("%w: model %q margin %v outside [0,1]", ErrInvalidFixture, m.ID, m.Margin)
		}
		s.modelIdx[m.ID] = i
		s.models = append(s.models, m)
	}

	s.units = make([][][MonthsPerYear]int, len(s.regions))
	for ri, r := range s.regions {
		byModel, ok := f.Sales[r.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no sales for region %q", ErrInvalidFixture, r.Name)
		}
		s.units[ri] = make([][MonthsPerYear]int, len(s.models))
		for mi, m := range s.models {
			series, ok := byModel[m.ID]
			if !ok {
				return nil, fmt.Errorf("%w: no sales for %s/%s", ErrInvalidFixture, r.Name, m.ID)
			}
			if len(series) != MonthsPerYear {
				return nil, fmt.Errorf("%w: %s/%s has %d months, want %d", ErrInvalidFixture, r.Name, m.ID, len(series), MonthsPerYear)
			}
			copy(s.units[ri][mi][:], series)
		}
	}
	for name := range f.Sales {
		if _, ok := s.regionIdx[name]; !ok {
			return nil, fmt.Errorf("%w: sales for unknown region %q", ErrInvalidFixture, name)
		}
	}

	for _, d := range f.Dealers {
		if _, ok := s.regionIdx[d.Region]; !ok {
			return nil, fmt.Errorf("%w: dealer %q in unknown region %q", ErrInvalidFixture, d.Name, d.Region)
		}
	}
	if err := checkRanks(f.Dealers); err != nil {
		return nil, err
	}
	s.dealers = slices.Clone(f.Dealers)

	s.marketShare = f.MarketShare
	s.marketShare.Competitors = slices.Clone(f.MarketShare.Competitors)

	return s, nil
}

// checkRanks requires ranks 1..n in fixture order with revenue non-increasing.
func checkRanks(dealers []models.Dealer) error {
	for i, d := range dealers {
		if d.Rank != i+1 {
			return fmt.Errorf("%w: dealer %q has rank %d at position %d", ErrInvalidFixture, d.Name, d.Rank, i+1)
		}
		if i > 0 && d.Revenue > dealers[i-1].Revenue {
			return fmt.Errorf("%w: dealer %q (rank %d) out-earns rank %d", ErrInvalidFixture, d.Name, d.Rank, d.Rank-1)
		}
	}
	return nil
}

func (s *Store) Company() models.Company { return s.company }

func (s *Store) Months() []string { return slices.Clone(s.months) }

func (s *Store) MonthLabel(month int) string { return s.months[month] }

func (s *Store) NumRegions() int { return len(s.regions) }

func (s *Store) NumModels() int { return len(s.models) }

// Regions returns the regions in declared order.
func (s *Store) Regions() []models.Region {
	out := make([]models.Region, len(s.regions))
	for i, r := range s.regions {
		r.States = slices.Clone(r.States)
		out[i] = r
	}
	return out
}

// Models returns the models in declared order.
func (s *Store) Models() []models.Model { return slices.Clone(s.models) }

// Dealers returns every dealer in rank order.
func (s *Store) Dealers() []models.Dealer { return slices.Clone(s.dealers) }

func (s *Store) MarketShare() models.MarketShare {
	ms := s.marketShare
	ms.Competitors = slices.Clone(s.marketShare.Competitors)
	return ms
}

// RegionIndex looks a region up by its exact name.
func (s *Store) RegionIndex(name string) (int, bool) {
	i, ok := s.regionIdx[name]
	return i, ok
}

// ModelIndex looks a model up by its exact id.
func (s *Store) ModelIndex(id string) (int, bool) {
	i, ok := s.modelIdx[id]
	return i, ok
}

func (s *Store) RegionAt(i int) models.Region {
	r := s.regions[i]
	r.States = slices.Clone(r.States)
	return r
}

func (s *Store) ModelAt(i int) models.Model { return s.models[i] }

// Units returns units sold for the region/model pair in a 0-based month.
// Indices come from RegionIndex/ModelIndex; out-of-range indices panic.
func (s *Store) Units(region, model, month int) int {
	return s.units[region][model][month]
}

// Series returns a copy of the 12-month unit series for a region/model pair.
func (s *Store) Series(region, model int) []int {
	series := s.units[region][model]
	return slices.Clone(series[:])
}
