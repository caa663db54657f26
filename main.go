package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ttpr0/go-vrp/filters"
	"github.com/ttpr0/go-vrp/geo"
	"github.com/ttpr0/go-vrp/model"
	"github.com/ttpr0/go-vrp/parser"
	. "github.com/ttpr0/go-vrp/util"
	"golang.org/x/exp/slog"
)

func main() {
	config := ReadConfig("./config.yaml")

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(NewLogHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	instance := buildInstance(config.Instance)
	m := instance.BuildModel(config.Vehicles.Count, config.Vehicles.Capacity, filters.EnergyCost{
		Threshold:                 config.Energy.Threshold,
		CostPerUnitBelowThreshold: config.Energy.CostBelow,
		CostPerUnitAboveThreshold: config.Energy.CostAbove,
	})

	path_state := m.BuildPathState()
	manager := m.BuildFilters(path_state, config.Search.MinRangeSizeForRIQ)
	if config.Time.Enabled {
		addTimeFilter(manager, m, instance, config)
	}

	search := NewLocalSearch(m, manager, config.Search.Seed)
	slog.Info(fmt.Sprintf("initial cost: %v", search.Cost()))

	t1 := time.Now()
	search.Run(config.Search.Iterations)
	t2 := time.Since(t1)
	slog.Info(fmt.Sprintf("search took %v ms", t2.Milliseconds()))

	search.LogRoutes()
}

func buildInstance(options InstanceOptions) *model.Instance {
	if options.Cache != "" {
		if _, err := os.Stat(options.Cache); err == nil {
			slog.Info("loading cached instance " + options.Cache)
			return model.LoadInstance(options.Cache)
		}
	}

	var instance *model.Instance
	switch options.Source {
	case SOURCE_OSM:
		stops := parser.ParseStops(options.Path, parser.DeliveryStopDecoder{})
		instance = instanceFromStops(stops)
	case SOURCE_GTFS:
		stops := parser.ParseGtfsStops(options.Path)
		instance = instanceFromStops(stops)
	default:
		instance = model.RandomInstance(options.Stops,
			geo.Coord{options.MinLon, options.MinLat},
			geo.Coord{options.MaxLon, options.MaxLat},
			options.MaxDemand, options.Seed)
	}

	if options.Cache != "" {
		model.StoreInstance(instance, options.Cache)
	}
	return instance
}

func instanceFromStops(stops List[parser.Stop]) *model.Instance {
	if stops.Length() == 0 {
		panic("no stops found")
	}
	coords := NewArray[geo.Coord](stops.Length())
	demands := NewArray[int32](stops.Length())
	// The depot is placed at the centroid of the stops.
	depot := geo.Coord{}
	for i, stop := range stops {
		coords[i] = stop.Point
		demands[i] = stop.Demand
		depot[0] += stop.Point[0] / float32(stops.Length())
		depot[1] += stop.Point[1] / float32(stops.Length())
	}
	return model.NewInstance(depot, coords, demands)
}

// Adds a travel-time dimension checked through the scheduling oracle: all
// cumuls inside [0, horizon], transits from the distance matrix at constant
// speed.
func addTimeFilter(manager *filters.FilterManager, m *model.Model, instance *model.Instance, config Config) {
	speed := config.Time.Speed
	if speed <= 0 {
		speed = 1
	}
	transit := func(node int32, next int32) int64 {
		return instance.Distance(node, next) / speed
	}
	cumul_min := NewArray[int64](int(m.NumNodes()))
	cumul_max := NewArray[int64](int(m.NumNodes()))
	cumul_max.Fill(config.Time.Horizon)
	scheduler := model.NewCumulScheduler(m, transit, cumul_min, cumul_max)
	manager.Add(filters.NewLPCumulFilter(m.NumNexts(), m.NumNodes(),
		m.PathStarts(), m.PathEnds(), scheduler, scheduler, true, "time"))
}
