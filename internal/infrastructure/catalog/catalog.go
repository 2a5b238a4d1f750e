// Package catalog holds the report definitions for the ERP portal.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
)

var _ output.ReportCatalog = (*Catalog)(nil)

// DateLayout is the portal's date field format.
const DateLayout = "02/01/2006"

type builder func(businessDate string) entity.ReportDefinition

// Catalog builds report definitions for the business date reported by its
// clock. Definitions are rebuilt on every Lookup so a long-lived process
// picks up the date change at midnight.
type Catalog struct {
	clock    func() time.Time
	builders map[string]builder
}

func New(clock func() time.Time) *Catalog {
	if clock == nil {
		clock = time.Now
	}
	return &Catalog{
		clock: clock,
		builders: map[string]builder{
			PurchaseOrders:   purchaseOrders,
			FinanceDocuments: financeDocuments,
		},
	}
}

// FixedDate returns a clock that always reports the given day.
func FixedDate(day time.Time) func() time.Time {
	return func() time.Time { return day }
}

// ParseDate accepts dd/mm/yyyy or yyyy-mm-dd.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{DateLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: want dd/mm/yyyy or yyyy-mm-dd", s)
}

func (c *Catalog) Lookup(name string) (entity.ReportDefinition, error) {
	build, ok := c.builders[name]
	if !ok {
		return entity.ReportDefinition{}, fmt.Errorf("%w: %q", entity.ErrUnknownReport, name)
	}
	return build(c.clock().Format(DateLayout)), nil
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.builders))
	for name := range c.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
