// Package apperr holds the error kinds returned by the stock, search and dashboard operations.
// Callers match kinds with errors.Is against the sentinels and read details with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrNotFound            = errors.New("not found")
	ErrEmptyQuery          = errors.New("search query is empty")
	ErrPartialAggregation  = errors.New("partial aggregation failure")
)

// ConstraintViolationError is returned when a product shares no category with the aisle it is placed in.
// Category fields hold names when the caller could resolve them, ids otherwise.
type ConstraintViolationError struct {
	ProductID         string
	ProductName       string
	AisleID           string
	Aisle             string
	ProductCategories []string
	AllowedCategories []string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("product %q cannot be stocked in %s: product categories [%s] do not match allowed categories [%s]",
		e.ProductName, e.Aisle, strings.Join(e.ProductCategories, ", "), strings.Join(e.AllowedCategories, ", "))
}

func (e *ConstraintViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// InvalidQuantityError reports a non-positive admission or an adjustment that would go below zero.
type InvalidQuantityError struct {
	BatchID   string
	Requested int
	Current   int
	Limit     string
}

func (e *InvalidQuantityError) Error() string {
	if e.BatchID == "" {
		return fmt.Sprintf("invalid quantity %d: %s", e.Requested, e.Limit)
	}
	return fmt.Sprintf("invalid quantity change %d for batch %s (current %d): %s", e.Requested, e.BatchID, e.Current, e.Limit)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PartialAggregationError lists the dashboard sections that could not be built.
type PartialAggregationError struct {
	Causes map[string]error
}

func (e *PartialAggregationError) Sections() []string {
	out := make([]string, 0, len(e.Causes))
	for s := range e.Causes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (e *PartialAggregationError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for _, s := range e.Sections() {
		parts = append(parts, fmt.Sprintf("%s: %v", s, e.Causes[s]))
	}
	return "partial aggregation failure: " + strings.Join(parts, "; ")
}

func (e *PartialAggregationError) Is(target error) bool {
	return target == ErrPartialAggregation
}
