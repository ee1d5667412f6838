package lunch

import (
	"context"
	"time"
)

// Registration is one pupil registered for lunch on a given day
type Registration struct {
	PupilID     string
	Name        string
	Grade       string
	Teacher     string
	School      string
	Division    string
	WithoutPork bool
}

// Query is a pending selection of lunch registrations.
// Queries are immutable: narrowing returns a new Query.
type Query interface {
	// WithDiet keeps only pupils whose pork-free diet equals withoutPork
	WithDiet(withoutPork bool) Query

	// AtSchool keeps only pupils of the school
	AtSchool(school string) Query

	// Count returns the number of registrations matched by the query
	Count(ctx context.Context) (int, error)

	// List returns the registrations matched by the query
	List(ctx context.Context) ([]Registration, error)
}

// Registrations gives access to lunch registrations and school trips
type Registrations interface {
	// Lunches selects every registration for the day
	Lunches(day time.Time) Query

	// ExcludeTravelling narrows q to pupils not on a non-cancelled trip covering the day
	ExcludeTravelling(q Query, day time.Time) Query
}
