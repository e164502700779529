package models

// HoldingsTable is owned by the reporting side; this service only reads it.
const HoldingsTable = "consolidated_holdings"

// ConsolidatedHolding is an opaque holdings row, returned column by column.
type ConsolidatedHolding map[string]interface{}
