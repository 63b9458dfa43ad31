package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/youss97/transportBackend/internal/domain/model"
)

// Fleet is one company's reference data plus a month of events.
type Fleet struct {
	Schedule model.CompanySchedule
	Sites    []model.Site
	Drivers  []model.Driver
	Vehicles []model.Vehicle
	Events   []model.Event
}

var (
	firstNames = []string{"Amine", "Sara", "Karim", "Lina", "Yanis", "Nadia", "Omar", "Ines"}
	lastNames  = []string{"Benali", "Haddad", "Mansouri", "Cherif", "Bouzid", "Saidi"}
	brands     = []string{"Volvo FH", "Scania R", "MAN TGX", "Renault T"}
)

type generator struct {
	cfg Config
	rng *rand.Rand
}

// Generate builds a fleet from cfg. The result depends only on cfg: IDs are
// name-based UUIDs and the random source is seeded from cfg.Seed.
func Generate(cfg Config) (Fleet, error) {
	if err := cfg.Validate(); err != nil {
		return Fleet{}, err
	}
	g := &generator{cfg: cfg, rng: rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.Drivers)))}

	breaks := 1.0
	f := Fleet{
		Schedule: model.CompanySchedule{
			CompanyID:       cfg.CompanyID,
			WorkStartHour:   "07:00",
			WorkEndHour:     "16:00",
			TotalBreakHours: &breaks,
		},
	}
	for i := range cfg.Sites {
		f.Sites = append(f.Sites, model.Site{
			ID:          g.id("site", i),
			CompanyID:   cfg.CompanyID,
			Name:        fmt.Sprintf("Quarry %c", 'A'+i%26),
			PricePerTon: g.between(8, 15, 2),
		})
	}
	for i := range cfg.Drivers {
		f.Drivers = append(f.Drivers, model.Driver{
			ID:        g.id("driver", i),
			CompanyID: cfg.CompanyID,
			FirstName: firstNames[g.rng.IntN(len(firstNames))],
			LastName:  lastNames[g.rng.IntN(len(lastNames))],
		})
		f.Vehicles = append(f.Vehicles, model.Vehicle{
			ID:           g.id("vehicle", i),
			CompanyID:    cfg.CompanyID,
			LicensePlate: fmt.Sprintf("%05d-1%02d-16", 10000+i*37, g.rng.IntN(100)),
			Brand:        brands[i%len(brands)],
			Model:        "2021",
		})
	}
	for i, d := range f.Drivers {
		f.Events = append(f.Events, g.driverMonth(d, f.Vehicles[i], f.Sites)...)
	}
	return f, nil
}

func (g *generator) id(kind string, n int) string {
	name := fmt.Sprintf("fleetops/%s/%d/%s/%d", g.cfg.CompanyID, g.cfg.Seed, kind, n)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// between returns a value in [lo, hi) with the given number of decimals.
func (g *generator) between(lo, hi float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round((lo+g.rng.Float64()*(hi-lo))*p) / p
}

func (g *generator) driverMonth(d model.Driver, v model.Vehicle, sites []model.Site) []model.Event {
	var out []model.Event
	seq := 0
	add := func(t model.EventType, at time.Time, fill func(*model.Event)) {
		e := model.Event{
			ID:        g.id("event/"+d.ID, seq),
			CompanyID: g.cfg.CompanyID,
			DriverID:  d.ID,
			VehicleID: v.ID,
			Type:      t,
			Timestamp: at,
		}
		if fill != nil {
			fill(&e)
		}
		seq++
		out = append(out, e)
	}

	for day := 2; day < 2+g.cfg.Days; day++ {
		// Roughly one absence a week.
		if g.rng.IntN(7) == 0 {
			continue
		}
		base := time.Date(g.cfg.Year, time.Month(g.cfg.Month), day, 0, 0, 0, 0, time.UTC)
		at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

		add(model.ClockIn, at(6, 45+g.rng.IntN(40)), nil)
		add(model.VehicleCheck, at(7, 50), nil)

		loads := 1 + g.rng.IntN(3)
		for n := range loads {
			site := sites[g.rng.IntN(len(sites))]
			tons := g.between(12, 32, 1)
			add(model.Loading, at(8+n, g.rng.IntN(50)), func(e *model.Event) {
				e.SiteID = site.ID
				e.Weight = &tons
			})
		}

		add(model.BreakStart, at(12, 0), nil)
		add(model.BreakEnd, at(12, 30+g.rng.IntN(45)), nil)

		// Drop-offs have no site and never count towards revenue.
		dropped := g.between(10, 30, 1)
		add(model.Unloading, at(13, 30), func(e *model.Event) { e.Weight = &dropped })

		if g.rng.IntN(3) == 0 {
			qty := g.between(60, 140, 1)
			price := g.between(1.6, 1.95, 2)
			km := g.between(90, 320, 0)
			station := sites[g.rng.IntN(len(sites))].Name
			add(model.Fuel, at(14, 15), func(e *model.Event) {
				e.FuelQuantity = &qty
				e.FuelPrice = &price
				e.Kilometers = &km
				e.FuelStation = "Station " + station
			})
		}

		add(model.ClockOut, at(15, 30+g.rng.IntN(90)), nil)
	}
	return out
}
