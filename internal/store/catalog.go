package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/costwise/costwise/internal/models"
)

// catalogColumns is the select list shared by all catalog queries.
var catalogColumns = []string{
	"id", "vendor", "region", "sku", "kind", "vcpu", "memory_gb", "storage_gb",
	"COALESCE(storage_type, '')", "COALESCE(cpu_baseline, '')", "bandwidth_mbps",
	"monthly_cost", "currency", "extra",
}

// Query implements CatalogStore with a dynamically built statement: every
// zero filter field is simply absent from the WHERE clause. Results are
// always ordered by monthly cost ascending.
func (s *PostgresStore) Query(ctx context.Context, f models.CatalogFilter) ([]models.PriceCatalogEntry, error) {
	q := squirrel.Select(catalogColumns...).
		From("price_catalog").
		OrderBy("monthly_cost ASC").
		PlaceholderFormat(squirrel.Dollar)

	if f.Vendor != "" {
		q = q.Where(squirrel.Eq{"vendor": f.Vendor})
	}
	if len(f.ExcludeVendors) > 0 {
		q = q.Where(squirrel.NotEq{"vendor": f.ExcludeVendors})
	}
	if f.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": f.Kind})
	}
	if f.RegionPrefix != "" {
		q = q.Where(squirrel.Like{"region": f.RegionPrefix + "%"})
	}
	if f.VCPU > 0 {
		q = q.Where(squirrel.Eq{"vcpu": f.VCPU})
	}
	if f.MaxVCPU > 0 {
		q = q.Where(squirrel.Lt{"vcpu": f.MaxVCPU})
	}
	if f.MinMemoryGB > 0 {
		q = q.Where(squirrel.GtOrEq{"memory_gb": f.MinMemoryGB})
	}
	if f.MaxMemoryGB > 0 {
		q = q.Where(squirrel.LtOrEq{"memory_gb": f.MaxMemoryGB})
	}
	if f.StorageType != "" {
		q = q.Where(squirrel.Eq{"storage_type": f.StorageType})
	}
	if f.MinStorageGB > 0 {
		q = q.Where(squirrel.GtOrEq{"storage_gb": f.MinStorageGB})
	}
	if f.MaxMonthlyCost > 0 {
		q = q.Where(squirrel.Lt{"monthly_cost": f.MaxMonthlyCost})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build catalog query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query price catalog: %w", err)
	}
	defer rows.Close()

	var entries []models.PriceCatalogEntry
	for rows.Next() {
		var (
			e     models.PriceCatalogEntry
			extra []byte
		)
		if err := rows.Scan(&e.ID, &e.Vendor, &e.Region, &e.SKU, &e.Kind, &e.VCPU, &e.MemoryGB,
			&e.StorageGB, &e.StorageType, &e.CPUBaseline, &e.BandwidthMbps,
			&e.MonthlyCost, &e.Currency, &extra); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		if err := unmarshalJSONB(extra, &e.Extra); err != nil {
			return nil, fmt.Errorf("decode catalog extra: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
