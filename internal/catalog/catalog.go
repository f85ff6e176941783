// Package catalog describes the datasets the backend serves: which JSON file
// holds each one, which field carries its category and which categories its
// pivot table always shows.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

// Catalog is an ordered set of datasets addressable by name.
type Catalog struct {
	Datasets []domain.Dataset `yaml:"datasets"`

	byName map[string]int
}

// Default returns the four datasets of the sales dashboard.
func Default() *Catalog {
	c := &Catalog{Datasets: []domain.Dataset{
		{
			Name:            "customer-types",
			Label:           "customer types",
			File:            "CustomerType.json",
			CategoryField:   "Cust_Type",
			PivotCategories: []string{"Existing Customer", "New Customer"},
		},
		{
			Name:          "industries",
			Label:         "industries",
			File:          "AccountIndustry.json",
			CategoryField: "AccountIndustry",
		},
		{
			Name:          "teams",
			Label:         "teams",
			File:          "Team.json",
			CategoryField: "Team",
		},
		{
			Name:          "acv-ranges",
			Label:         "ACV ranges",
			File:          "ACVRange.json",
			CategoryField: "ACV_Range",
		},
	}}
	c.index()
	return c
}

// Load reads a YAML catalog from path. An empty path yields Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

// Dataset names are used as URL segments.
var nameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func (c *Catalog) validate() error {
	if len(c.Datasets) == 0 {
		return fmt.Errorf("catalog declares no datasets")
	}

	var errs []string
	seen := make(map[string]bool, len(c.Datasets))
	for i, ds := range c.Datasets {
		switch {
		case ds.Name == "":
			errs = append(errs, fmt.Sprintf("datasets[%d]: name is required", i))
		case !nameRegex.MatchString(ds.Name):
			errs = append(errs, fmt.Sprintf("datasets[%d]: name %q must be lowercase kebab-case", i, ds.Name))
		case seen[ds.Name]:
			errs = append(errs, fmt.Sprintf("datasets[%d]: duplicate name %q", i, ds.Name))
		}
		seen[ds.Name] = true

		if ds.File == "" {
			errs = append(errs, fmt.Sprintf("datasets[%d]: file is required", i))
		}
		if ds.CategoryField == "" {
			errs = append(errs, fmt.Sprintf("datasets[%d]: category_field is required", i))
		}
		for _, cat := range ds.PivotCategories {
			if cat == domain.TotalKey {
				errs = append(errs, fmt.Sprintf("datasets[%d]: %q is reserved", i, domain.TotalKey))
			}
		}
		if ds.Label == "" {
			c.Datasets[i].Label = strings.ReplaceAll(ds.Name, "-", " ")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Catalog) index() {
	c.byName = make(map[string]int, len(c.Datasets))
	for i, ds := range c.Datasets {
		c.byName[ds.Name] = i
	}
}

// Lookup returns the dataset registered under name.
func (c *Catalog) Lookup(name string) (domain.Dataset, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.Dataset{}, false
	}
	return c.Datasets[i], true
}

// ByFile returns the dataset stored in file, matched on the base name.
func (c *Catalog) ByFile(file string) (domain.Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.File == file {
			return ds, true
		}
	}
	return domain.Dataset{}, false
}

// Infos lists the public description of every dataset in catalog order.
func (c *Catalog) Infos() []domain.DatasetInfo {
	infos := make([]domain.DatasetInfo, 0, len(c.Datasets))
	for _, ds := range c.Datasets {
		infos = append(infos, ds.Info())
	}
	return infos
}
