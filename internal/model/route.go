package model

// Route connects two airports.  Source and destination may be the same
// airport; nothing in the schema forbids it.
type Route struct {
	ID            uint64 // routes.id
	SourceID      uint64 // routes.source_id (airports.id)
	DestinationID uint64 // routes.destination_id (airports.id)
	Distance      uint32 // routes.distance in kilometres, always positive
}

// RouteView is a route joined with both of its airports.  List and detail
// responses are rendered from it without further queries.
type RouteView struct {
	Route
	SourceCity         string // source airport closest_big_city
	SourceAirport      string // source airport name
	DestinationCity    string // destination airport closest_big_city
	DestinationAirport string // destination airport name
}
