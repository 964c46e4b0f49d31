package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"clubspace/internal/interval"
	"clubspace/internal/pricing"
	"clubspace/internal/timeutil"
)

// SpaceConfig describes one bookable space.
type SpaceConfig struct {
	ID           int64               `yaml:"id"`
	Name         string              `yaml:"name"`
	Description  string              `yaml:"description"`
	Capacity     int                 `yaml:"capacity"`
	IsActive     bool                `yaml:"is_active"`
	PricedBlocks []PricedBlockConfig `yaml:"priced_blocks"`
}

// PricedBlockConfig is a priced weekly slot as written in spaces.yaml.
type PricedBlockConfig struct {
	Weekday string `yaml:"weekday"` // "Monday".."Sunday"
	Start   string `yaml:"start"`   // "08:00"
	End     string `yaml:"end"`     // "10:00"
	Price   string `yaml:"price"`   // "50.00"
}

// Parse converts the YAML block into the typed pricing block. The space ID
// is filled in by the caller syncing the catalog.
func (b PricedBlockConfig) Parse() (pricing.PricedBlock, error) {
	weekday, err := timeutil.ParseWeekday(b.Weekday)
	if err != nil {
		return pricing.PricedBlock{}, err
	}
	slot, err := interval.Parse(b.Start, b.End)
	if err != nil {
		return pricing.PricedBlock{}, err
	}
	price, err := pricing.ParseMoney(b.Price)
	if err != nil {
		return pricing.PricedBlock{}, err
	}
	return pricing.PricedBlock{Weekday: weekday, Slot: slot, Price: price}, nil
}

// HolidayConfig marks a club-wide closed date.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2025-01-01"
	Name string `yaml:"name"`
}

// SpacesConfig is the root of spaces.yaml.
type SpacesConfig struct {
	Spaces   []SpaceConfig   `yaml:"spaces"`
	Holidays []HolidayConfig `yaml:"holidays"`
}

// LoadSpacesConfig loads and validates the spaces catalog.
func LoadSpacesConfig(path string) (*SpacesConfig, error) {
	if path == "" {
		path = "configs/spaces.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spaces config: %w", err)
	}

	var cfg SpacesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse spaces config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate spaces config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the catalog for errors, including ambiguous priced blocks.
func (c *SpacesConfig) Validate() error {
	if len(c.Spaces) == 0 {
		return fmt.Errorf("no spaces defined")
	}

	ids := make(map[int64]bool)
	names := make(map[string]bool)

	for i, sp := range c.Spaces {
		if sp.ID <= 0 {
			return fmt.Errorf("space[%d]: id must be positive, got %d", i, sp.ID)
		}
		if ids[sp.ID] {
			return fmt.Errorf("space[%d]: duplicate id %d", i, sp.ID)
		}
		ids[sp.ID] = true

		if sp.Name == "" {
			return fmt.Errorf("space[%d]: name is required", i)
		}
		if names[sp.Name] {
			return fmt.Errorf("space[%d]: duplicate name '%s'", i, sp.Name)
		}
		names[sp.Name] = true

		if sp.Capacity < 0 {
			return fmt.Errorf("space[%d]: capacity cannot be negative", i)
		}

		var blocks []pricing.PricedBlock
		for j, b := range sp.PricedBlocks {
			blk, err := b.Parse()
			if err != nil {
				return fmt.Errorf("space[%d].priced_blocks[%d]: %w", i, j, err)
			}
			blk.SpaceID = sp.ID
			blocks = append(blocks, blk)
		}
		if err := pricing.ValidateBlocks(blocks); err != nil {
			return fmt.Errorf("space[%d]: %w", i, err)
		}
	}

	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if _, err := timeutil.ParseDate(h.Date); err != nil {
			return fmt.Errorf("holiday[%d]: %w", i, err)
		}
	}

	return nil
}

// GetSpaceByID returns a space config by ID.
func (c *SpacesConfig) GetSpaceByID(id int64) *SpaceConfig {
	for i := range c.Spaces {
		if c.Spaces[i].ID == id {
			return &c.Spaces[i]
		}
	}
	return nil
}

// IsHoliday checks whether a date string (YYYY-MM-DD) is a club holiday.
func (c *SpacesConfig) IsHoliday(date string) (bool, string) {
	for _, h := range c.Holidays {
		if h.Date == date {
			return true, h.Name
		}
	}
	return false, ""
}
