package analytics_test

import "github.com/lorrc/sales-analytics-backend/internal/core/domain"

const (
	existing    = "Existing Customer"
	newCustomer = "New Customer"
)

var customerTypes = []string{existing, newCustomer}

func rec(quarter, category string, count int64, acv float64) domain.DealRecord {
	return domain.DealRecord{Count: count, ACV: acv, Quarter: quarter, Category: category}
}

// sampleRecords is out of quarter order and repeats a (quarter, category) pair.
func sampleRecords() []domain.DealRecord {
	return []domain.DealRecord{
		rec("2023-Q2", newCustomer, 4, 2500),
		rec("2023-Q1", existing, 3, 3000),
		rec("2023-Q1", newCustomer, 2, 1000),
		rec("2023-Q2", existing, 1, 7500),
		rec("2023-Q3", existing, 5, 4200.5),
		rec("2023-Q2", newCustomer, 1, 500),
	}
}
