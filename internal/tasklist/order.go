package tasklist

import (
	"cmp"
	"slices"

	"taskboard/internal/service"
)

// Normalize returns a copy of tasks stable-sorted by Order, with orders
// rewritten to the contiguous sequence 0..n-1. Equal orders keep their
// fetch order.
func Normalize(tasks []service.Task) []service.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b service.Task) int {
		return cmp.Compare(a.Order, b.Order)
	})
	renumber(out)
	return out
}

// Move returns a copy of tasks with the element at from removed and
// reinserted at to, intervening elements shifting by one, and orders
// renumbered by position. Both indices must be in range.
func Move(tasks []service.Task, from, to int) []service.Task {
	out := slices.Clone(tasks)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moved)
	renumber(out)
	return out
}

// NextOrder returns the order for a task appended after tasks:
// one past the current maximum, or 0 for an empty list.
func NextOrder(tasks []service.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	highest := tasks[0].Order
	for _, t := range tasks[1:] {
		highest = max(highest, t.Order)
	}
	return highest + 1
}

// Entries returns the id -> order mapping sent in a batch reorder.
func Entries(tasks []service.Task) []service.OrderEntry {
	entries := make([]service.OrderEntry, len(tasks))
	for i, t := range tasks {
		entries[i] = service.OrderEntry{ID: t.ID, Order: t.Order}
	}
	return entries
}

func renumber(tasks []service.Task) {
	for i := range tasks {
		tasks[i].Order = i
	}
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
