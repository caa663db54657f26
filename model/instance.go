package model

import (
	"math/rand"
	"os"

	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/filters"
	"github.com/ttpr0/go-vrp/geo"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// instance
//*******************************************

// A concrete problem instance: one depot, customer stops with demands and a
// precomputed distance matrix in meters. Locations are indexed customer
// first, the depot location comes last.
type Instance struct {
	depot     geo.Coord
	stops     Array[geo.Coord]
	demands   Array[int32]
	distances Array[int32]
}

func NewInstance(depot geo.Coord, stops Array[geo.Coord], demands Array[int32]) *Instance {
	if stops.Length() != demands.Length() {
		panic("stops and demands must have the same length")
	}
	self := &Instance{
		depot:   depot,
		stops:   stops,
		demands: demands,
	}
	self.computeDistances()
	return self
}

// Random instance inside a bounding box, for benchmarks and tests.
func RandomInstance(num_stops int, min geo.Coord, max geo.Coord, max_demand int32, seed int64) *Instance {
	rng := rand.New(rand.NewSource(seed))
	stops := NewArray[geo.Coord](num_stops)
	demands := NewArray[int32](num_stops)
	for i := 0; i < num_stops; i++ {
		stops[i] = geo.Coord{
			min[0] + rng.Float32()*(max[0]-min[0]),
			min[1] + rng.Float32()*(max[1]-min[1]),
		}
		demands[i] = 1 + rng.Int31n(max_demand)
	}
	depot := geo.Coord{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2}
	return NewInstance(depot, stops, demands)
}

func (self *Instance) NumStops() int32 {
	return int32(self.stops.Length())
}

func (self *Instance) Stop(index int32) geo.Coord {
	return self.stops[index]
}

func (self *Instance) Demand(index int32) int32 {
	return self.demands[index]
}

func (self *Instance) computeDistances() {
	num_locations := self.stops.Length() + 1
	locations := NewArray[geo.Coord](num_locations)
	copy(locations, self.stops)
	locations[num_locations-1] = self.depot
	self.distances = NewArray[int32](num_locations * num_locations)
	for i := 0; i < num_locations; i++ {
		for j := 0; j < num_locations; j++ {
			self.distances[i*num_locations+j] = int32(geo.HaversineDist(locations[i], locations[j]))
		}
	}
}

// Distance between two locations, stop indices or the depot.
func (self *Instance) location(index int32) int32 {
	if index >= int32(self.stops.Length()) {
		return int32(self.stops.Length())
	}
	return index
}

func (self *Instance) Distance(from int32, to int32) int64 {
	num_locations := int32(self.stops.Length() + 1)
	return int64(self.distances[self.location(from)*num_locations+self.location(to)])
}

//*******************************************
// binary caching
//*******************************************

// Distance matrices of large instances are expensive to compute, so built
// instances are cached as length-prefixed little-endian arrays.
func StoreInstance(instance *Instance, file string) {
	writer := NewBufferWriter()
	Write(writer, instance.depot)
	WriteArray(writer, instance.stops)
	WriteArray(writer, instance.demands)
	WriteArray(writer, instance.distances)

	f, err := os.Create(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	f.Write(writer.Bytes())
}

func LoadInstance(file string) *Instance {
	data, err := os.ReadFile(file)
	if err != nil {
		panic(err)
	}
	reader := NewBufferReader(data)
	self := &Instance{}
	self.depot = Read[geo.Coord](reader)
	self.stops = ReadArray[geo.Coord](reader)
	self.demands = ReadArray[int32](reader)
	self.distances = ReadArray[int32](reader)
	return self
}

//*******************************************
// model building
//*******************************************

// Builds the routing model of this instance: a homogeneous fleet with a
// load dimension and an energy cost term whose force is the carried load.
func (self *Instance) BuildModel(num_vehicles int32, capacity int64, energy_cost filters.EnergyCost) *Model {
	num_customers := self.NumStops()
	model := NewModel(num_customers, num_vehicles)

	// All vehicles share one evaluator class.
	path_class := NewArray[int32](int(num_vehicles))
	path_capacity := make([]arith.Interval, num_vehicles)
	for v := range path_capacity {
		path_capacity[v] = arith.Interval{Min: 0, Max: capacity}
	}
	node_capacity := make([]arith.Interval, model.NumNodes())
	for n := range node_capacity {
		node_capacity[n] = arith.Interval{Min: 0, Max: capacity}
	}
	demand := func(node int32, next int32) arith.Interval {
		d := int64(0)
		if next < num_customers {
			d = int64(self.demands[next])
		}
		return arith.Interval{Min: d, Max: d}
	}
	model.AddDimension("load", path_capacity, path_class, []filters.DemandFunc{demand}, node_capacity)

	force_start_min := make([]int64, num_vehicles)
	force_end_min := make([]int64, num_vehicles)
	costs := make([]filters.EnergyCost, num_vehicles)
	has_cost_when_empty := make([]bool, num_vehicles)
	for v := range costs {
		costs[v] = energy_cost
	}
	force := func(node int32) int64 {
		if node < num_customers {
			return int64(self.demands[node])
		}
		return 0
	}
	distance := func(node int32, next int32) int64 {
		return self.Distance(node, next)
	}
	model.AddEnergyCost("energy", force_start_min, force_end_min,
		path_class, []filters.ForceFunc{force},
		path_class, []filters.DistanceFunc{distance},
		costs, has_cost_when_empty)

	return model
}
