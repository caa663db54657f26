package parser

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ttpr0/go-vrp/geo"
	. "github.com/ttpr0/go-vrp/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// gtfs stop parser
//*******************************************

// Reads the stops of an unpacked GTFS feed from its stops.txt. Rows without
// valid coordinates are skipped, demand defaults to 1.
func ParseGtfsStops(gtfs_dir string) List[Stop] {
	stops := NewList[Stop](1000)
	stops_file := filepath.Join(gtfs_dir, "stops.txt")
	for row := range ReadCSVFromFile(stops_file, ',') {
		lon, err := strconv.ParseFloat(row.Get("stop_lon"), 32)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(row.Get("stop_lat"), 32)
		if err != nil {
			continue
		}
		stops.Add(Stop{
			Point:  geo.Coord{float32(lon), float32(lat)},
			Name:   row.Get("stop_name"),
			Demand: 1,
		})
	}
	slog.Info(fmt.Sprintf("parsed %v stops from %v", stops.Length(), stops_file))
	return stops
}
