package models

// Page is one page of a paginated listing; Count is the total number of
// matching items.
type Page[T any] struct {
	Count int
	Items []T
}
