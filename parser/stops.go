package parser

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/ttpr0/go-vrp/geo"
	. "github.com/ttpr0/go-vrp/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// osm stop extraction
//*******************************************

type Stop struct {
	Point geo.Coord
	Name  string
	// Demand in abstract load units, decoded from tags or defaulted.
	Demand int32
}

// Extracts stop nodes from an OSM pbf extract. Which nodes count as stops
// and how their demand is derived is up to the decoder.
func ParseStops(pbf_file string, decoder IStopDecoder) List[Stop] {
	stops := NewList[Stop](1000)

	file, err := os.Open(pbf_file)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	scanner := osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	c := 0
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Node:
			tags := Dict[string, string](object.TagMap())
			if !decoder.IsValidStop(tags) {
				continue
			}
			c += 1
			if c%1000 == 0 {
				slog.Debug(fmt.Sprintf("stops: %v", c))
			}
			stops.Add(Stop{
				Point:  geo.Coord{float32(object.Lon), float32(object.Lat)},
				Name:   tags.Get("name"),
				Demand: decoder.DecodeDemand(tags),
			})
		default:
			continue
		}
	}
	slog.Info(fmt.Sprintf("parsed %v stops from %v", stops.Length(), pbf_file))
	return stops
}

//*******************************************
// stop decoder
//*******************************************

type IStopDecoder interface {
	IsValidStop(tags Dict[string, string]) bool
	DecodeDemand(tags Dict[string, string]) int32
}

// Decodes public transport stops: highway=bus_stop and
// public_transport=platform/stop_position nodes.
type TransitStopDecoder struct{}

func (self TransitStopDecoder) IsValidStop(tags Dict[string, string]) bool {
	if tags.Get("highway") == "bus_stop" {
		return true
	}
	pt := tags.Get("public_transport")
	return pt == "platform" || pt == "stop_position"
}

func (self TransitStopDecoder) DecodeDemand(tags Dict[string, string]) int32 {
	return 1
}

// Decodes delivery targets: shops and amenities with an addr tag. Demand
// is taken from building:levels where present.
type DeliveryStopDecoder struct{}

func (self DeliveryStopDecoder) IsValidStop(tags Dict[string, string]) bool {
	if !tags.ContainsKey("addr:housenumber") {
		return false
	}
	return tags.ContainsKey("shop") || tags.ContainsKey("amenity")
}

func (self DeliveryStopDecoder) DecodeDemand(tags Dict[string, string]) int32 {
	if !tags.ContainsKey("building:levels") {
		return 1
	}
	levels, err := strconv.Atoi(tags.Get("building:levels"))
	if err != nil || levels < 1 {
		return 1
	}
	return int32(levels)
}
