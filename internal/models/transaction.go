package models

import (
	"fmt"
	"time"
)

// NotAvailable is shown in place of a band label when there is nothing to rank
const NotAvailable = "N/A"

// BandWidth is the size in hours of one time band
const BandWidth = 3

// Transaction represents a single ticket sale from the ETIM log
type Transaction struct {
	DepotName      string    `json:"depot_name"`
	CityName       string    `json:"city_name"`
	RouteName      string    `json:"route_name"`
	PassengerCount int       `json:"passenger_count"`
	FareCollected  float64   `json:"fare_collected"`
	PaymentMode    string    `json:"payment_mode"`
	PassengerType  string    `json:"passenger_type,omitempty"`
	Timestamp      time.Time `json:"timestamp"`

	// Derived fields (computed once at load)
	Hour              int    `json:"hour"`
	TimeInterval      int    `json:"time_interval"`
	TimeIntervalLabel string `json:"time_interval_label"` // "06-09 hrs"
}

// ComputeDerivedFields populates the hour and time band fields from Timestamp
func (t *Transaction) ComputeDerivedFields() {
	t.Hour = t.Timestamp.Hour()
	t.TimeInterval = IntervalStart(t.Hour)
	t.TimeIntervalLabel = IntervalLabel(t.TimeInterval)
}

// IntervalStart floors an hour to the start of its band
func IntervalStart(hour int) int {
	return (hour / BandWidth) * BandWidth
}

// IntervalLabel formats a band start as "HH-HH hrs"
func IntervalLabel(start int) string {
	return fmt.Sprintf("%02d-%02d hrs", start, start+BandWidth)
}

// Dataset is the immutable, in-memory transaction log.
// Filtering produces new Dataset values; the underlying rows are never modified.
type Dataset struct {
	Transactions     []Transaction
	HasPassengerType bool
	LoadID           string
	Source           string
}

// NewDataset creates a Dataset from a slice of transactions
func NewDataset(transactions []Transaction, hasPassengerType bool) *Dataset {
	return &Dataset{Transactions: transactions, HasPassengerType: hasPassengerType}
}

// EmptyDataset returns a zero-row dataset carrying the full schema
func EmptyDataset() *Dataset {
	return &Dataset{HasPassengerType: true}
}

// Len returns the number of transactions
func (ds *Dataset) Len() int {
	return len(ds.Transactions)
}

// IsEmpty reports whether the dataset has no rows
func (ds *Dataset) IsEmpty() bool {
	return len(ds.Transactions) == 0
}

// Where returns the rows for which keep returns true, preserving order and schema
func (ds *Dataset) Where(keep func(t *Transaction) bool) *Dataset {
	result := &Dataset{
		HasPassengerType: ds.HasPassengerType,
		LoadID:           ds.LoadID,
		Source:           ds.Source,
	}
	for i := range ds.Transactions {
		if keep(&ds.Transactions[i]) {
			result.Transactions = append(result.Transactions, ds.Transactions[i])
		}
	}
	return result
}

// SumPassengers returns the total passenger count
func (ds *Dataset) SumPassengers() int {
	var sum int
	for _, t := range ds.Transactions {
		sum += t.PassengerCount
	}
	return sum
}
