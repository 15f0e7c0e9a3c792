// Package models contains GORM persistence models for the process costing
// tables. They are separate from the domain types so the domain layer stays
// free of ORM concerns; each model converts to and from its domain type.
//
// Tables:
//   - manufacturing_orders: planned output quantity per order
//   - direct_materials, direct_labor, overhead_costs: cost lines per order
//   - process_stages: stage progress and accumulated cost per order
package models
