// Package seed loads reference data (airports, airplanes, crews, routes,
// flights) from a YAML fixture file.  Rows refer to each other by name and
// are inserted through the repositories inside a single transaction.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

// timeLayout matches the datetime format accepted by the HTTP API.
const timeLayout = "2006-01-02 15:04"

type Fixtures struct {
	Airports      []Airport  `yaml:"airports"`
	AirplaneTypes []string   `yaml:"airplane_types"`
	Airplanes     []Airplane `yaml:"airplanes"`
	Crews         []Crew     `yaml:"crews"`
	Routes        []Route    `yaml:"routes"`
	Flights       []Flight   `yaml:"flights"`
}

type Airport struct {
	Name           string `yaml:"name"`
	ClosestBigCity string `yaml:"closest_big_city"`
}

type Airplane struct {
	Name       string `yaml:"name"`
	Rows       int    `yaml:"rows"`
	SeatsInRow int    `yaml:"seats_in_row"`
	Type       string `yaml:"type"`
}

type Crew struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Route names its airports; Key is how flights refer to it and defaults
// to "Source-Destination".
type Route struct {
	Key         string `yaml:"key"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Distance    uint32 `yaml:"distance"`
}

type Flight struct {
	Route     string   `yaml:"route"`
	Airplane  string   `yaml:"airplane"`
	Departure string   `yaml:"departure"`
	Arrival   string   `yaml:"arrival"`
	Crew      []string `yaml:"crew"` // "First Last"
}

// Summary counts what Apply inserted.
type Summary struct {
	Airports, AirplaneTypes, Airplanes, Crews, Routes, Flights int
}

func (s Summary) String() string {
	return fmt.Sprintf("airports=%d airplane_types=%d airplanes=%d crews=%d routes=%d flights=%d",
		s.Airports, s.AirplaneTypes, s.Airplanes, s.Crews, s.Routes, s.Flights)
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixtures and checks every cross reference before anything
// touches the database.
func Parse(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	for i := range f.Routes {
		if f.Routes[i].Key == "" {
			f.Routes[i].Key = f.Routes[i].Source + "-" + f.Routes[i].Destination
		}
	}
	return f, f.check()
}

func (f Fixtures) check() error {
	airports := set(len(f.Airports))
	for _, a := range f.Airports {
		airports[a.Name] = struct{}{}
	}
	types := set(len(f.AirplaneTypes))
	for _, t := range f.AirplaneTypes {
		types[t] = struct{}{}
	}
	planes := set(len(f.Airplanes))
	for _, a := range f.Airplanes {
		if _, ok := types[a.Type]; !ok {
			return fmt.Errorf("airplane %q: unknown type %q", a.Name, a.Type)
		}
		grid := model.Airplane{Rows: a.Rows, SeatsInRow: a.SeatsInRow}
		if err := grid.ValidateGrid(); err != nil {
			return fmt.Errorf("airplane %q: %w", a.Name, err)
		}
		planes[a.Name] = struct{}{}
	}
	crews := set(len(f.Crews))
	for _, c := range f.Crews {
		crews[c.FirstName+" "+c.LastName] = struct{}{}
	}
	routes := set(len(f.Routes))
	for _, r := range f.Routes {
		for _, name := range []string{r.Source, r.Destination} {
			if _, ok := airports[name]; !ok {
				return fmt.Errorf("route %q: unknown airport %q", r.Key, name)
			}
		}
		if r.Distance == 0 {
			return fmt.Errorf("route %q: distance must be positive", r.Key)
		}
		routes[r.Key] = struct{}{}
	}
	for i, fl := range f.Flights {
		if _, ok := routes[fl.Route]; !ok {
			return fmt.Errorf("flight %d: unknown route %q", i, fl.Route)
		}
		if _, ok := planes[fl.Airplane]; !ok {
			return fmt.Errorf("flight %d: unknown airplane %q", i, fl.Airplane)
		}
		dep, arr, err := fl.times()
		if err != nil {
			return fmt.Errorf("flight %d: %w", i, err)
		}
		if !arr.After(dep) {
			return fmt.Errorf("flight %d: arrival must be after departure", i)
		}
		for _, name := range fl.Crew {
			if _, ok := crews[name]; !ok {
				return fmt.Errorf("flight %d: unknown crew member %q", i, name)
			}
		}
	}
	return nil
}

func (fl Flight) times() (dep, arr time.Time, err error) {
	if dep, err = time.Parse(timeLayout, fl.Departure); err != nil {
		return dep, arr, fmt.Errorf("departure: expected YYYY-MM-DD HH:MM")
	}
	if arr, err = time.Parse(timeLayout, fl.Arrival); err != nil {
		return dep, arr, fmt.Errorf("arrival: expected YYYY-MM-DD HH:MM")
	}
	return dep, arr, nil
}

func set(n int) map[string]struct{} { return make(map[string]struct{}, n) }

// Apply inserts f in one transaction.  Any failure rolls back everything.
func Apply(ctx context.Context, db *sql.DB, f Fixtures) (Summary, error) {
	var sum Summary
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sum, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	airportRepo := repository.NewAirportRepo(db)
	typeRepo := repository.NewAirplaneTypeRepo(db)
	planeRepo := repository.NewAirplaneRepo(db)
	crewRepo := repository.NewCrewRepo(db)
	routeRepo := repository.NewRouteRepo(db)
	flightRepo := repository.NewFlightRepo(db)

	airports := map[string]uint64{}
	for _, a := range f.Airports {
		m := model.Airport{Name: a.Name, ClosestBigCity: a.ClosestBigCity}
		if err := airportRepo.CreateTx(ctx, tx, &m); err != nil {
			return sum, fmt.Errorf("airport %q: %w", a.Name, err)
		}
		airports[a.Name] = m.ID
		sum.Airports++
	}
	types := map[string]uint64{}
	for _, name := range f.AirplaneTypes {
		m := model.AirplaneType{Name: name}
		if err := typeRepo.CreateTx(ctx, tx, &m); err != nil {
			return sum, fmt.Errorf("airplane type %q: %w", name, err)
		}
		types[name] = m.ID
		sum.AirplaneTypes++
	}
	planes := map[string]uint64{}
	for _, a := range f.Airplanes {
		m := model.Airplane{Name: a.Name, Rows: a.Rows, SeatsInRow: a.SeatsInRow, AirplaneTypeID: types[a.Type]}
		if err := planeRepo.CreateTx(ctx, tx, &m); err != nil {
			return sum, fmt.Errorf("airplane %q: %w", a.Name, err)
		}
		planes[a.Name] = m.ID
		sum.Airplanes++
	}
	crews := map[string]uint64{}
	for _, c := range f.Crews {
		m := model.Crew{FirstName: c.FirstName, LastName: c.LastName}
		if err := crewRepo.CreateTx(ctx, tx, &m); err != nil {
			return sum, fmt.Errorf("crew %q: %w", m.FullName(), err)
		}
		crews[m.FullName()] = m.ID
		sum.Crews++
	}
	routes := map[string]uint64{}
	for _, r := range f.Routes {
		m := model.Route{SourceID: airports[r.Source], DestinationID: airports[r.Destination], Distance: r.Distance}
		if err := routeRepo.CreateTx(ctx, tx, &m); err != nil {
			return sum, fmt.Errorf("route %q: %w", r.Key, err)
		}
		routes[r.Key] = m.ID
		sum.Routes++
	}
	for i, fl := range f.Flights {
		dep, arr, err := fl.times()
		if err != nil {
			return sum, fmt.Errorf("flight %d: %w", i, err)
		}
		m := model.Flight{RouteID: routes[fl.Route], AirplaneID: planes[fl.Airplane], DepartureTime: dep, ArrivalTime: arr}
		for _, name := range fl.Crew {
			m.CrewIDs = append(m.CrewIDs, crews[name])
		}
		if err := flightRepo.CreateTx(ctx, tx, &m); err != nil {
			return sum, fmt.Errorf("flight %d: %w", i, err)
		}
		sum.Flights++
	}

	if err := tx.Commit(); err != nil {
		return sum, err
	}
	committed = true
	return sum, nil
}
