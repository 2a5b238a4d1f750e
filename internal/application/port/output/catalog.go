package output

import "portal-exporter/internal/domain/entity"

type ReportCatalog interface {
	Lookup(name string) (entity.ReportDefinition, error)
	Names() []string
}
