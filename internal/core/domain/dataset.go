package domain

// Dataset describes one reference dataset served by the backend.
type Dataset struct {
	// Name is the URL segment, e.g. "customer-types".
	Name string `yaml:"name"`
	// Label is the human name used in messages, e.g. "customer types".
	Label string `yaml:"label"`
	// File is the JSON file holding the records, relative to the data directory.
	File string `yaml:"file"`
	// CategoryField is the JSON key carrying the category label ("Cust_Type").
	CategoryField string `yaml:"category_field"`
	// PivotCategories are the categories the summary table always shows, in
	// order, even when a quarter has no deals for them.
	PivotCategories []string `yaml:"pivot_categories"`
}

// DatasetInfo is the public description of a dataset.
type DatasetInfo struct {
	Name            string   `json:"name"`
	Label           string   `json:"label"`
	CategoryField   string   `json:"categoryField"`
	PivotCategories []string `json:"pivotCategories"`
}

// Info returns the public description of the dataset.
func (d Dataset) Info() DatasetInfo {
	categories := d.PivotCategories
	if categories == nil {
		categories = []string{}
	}
	return DatasetInfo{
		Name:            d.Name,
		Label:           d.Label,
		CategoryField:   d.CategoryField,
		PivotCategories: categories,
	}
}
