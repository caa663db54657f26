package main

import (
	"errors"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

//**********************************************************
// config
//**********************************************************

func ReadConfig(file string) Config {
	slog.Info("Reading config file")
	data, err := os.ReadFile(file)
	if err != nil {
		slog.Error("failed to read config file: " + err.Error())
		panic(err)
	}
	var config Config
	yaml.Unmarshal(data, &config)
	return config
}

type Config struct {
	Instance InstanceOptions `yaml:"instance"`
	Vehicles struct {
		Count    int32 `yaml:"count"`
		Capacity int64 `yaml:"capacity"`
	} `yaml:"vehicles"`
	Energy struct {
		Threshold int64 `yaml:"threshold"`
		CostBelow int64 `yaml:"cost-below"`
		CostAbove int64 `yaml:"cost-above"`
	} `yaml:"energy"`
	Time struct {
		Enabled bool  `yaml:"enabled"`
		Speed   int64 `yaml:"speed"`
		Horizon int64 `yaml:"horizon"`
	} `yaml:"time"`
	Search struct {
		Iterations         int   `yaml:"iterations"`
		Seed               int64 `yaml:"seed"`
		MinRangeSizeForRIQ int32 `yaml:"min-range-size-for-riq"`
	} `yaml:"search"`
	Debug bool `yaml:"debug"`
}

type InstanceOptions struct {
	Source SourceType `yaml:"source"`
	// pbf extract for "osm", unpacked feed directory for "gtfs".
	Path  string `yaml:"path"`
	Cache string `yaml:"cache"`
	// Random instance parameters.
	Stops     int     `yaml:"stops"`
	MaxDemand int32   `yaml:"max-demand"`
	Seed      int64   `yaml:"seed"`
	MinLon    float32 `yaml:"min-lon"`
	MinLat    float32 `yaml:"min-lat"`
	MaxLon    float32 `yaml:"max-lon"`
	MaxLat    float32 `yaml:"max-lat"`
}

//**********************************************************
// enums
//**********************************************************

type SourceType byte

const (
	SOURCE_RANDOM SourceType = 0
	SOURCE_OSM    SourceType = 1
	SOURCE_GTFS   SourceType = 2
)

func (self SourceType) String() string {
	switch self {
	case SOURCE_RANDOM:
		return "random"
	case SOURCE_OSM:
		return "osm"
	case SOURCE_GTFS:
		return "gtfs"
	default:
		panic("unknown source type")
	}
}
func (self SourceType) MarshalYAML() (any, error) {
	return self.String(), nil
}
func (self *SourceType) UnmarshalYAML(value *yaml.Node) error {
	typ, err := SourceTypeFromString(value.Value)
	if err != nil {
		return err
	}
	*self = typ
	return nil
}

func SourceTypeFromString(s string) (SourceType, error) {
	switch s {
	case "random":
		return SOURCE_RANDOM, nil
	case "osm":
		return SOURCE_OSM, nil
	case "gtfs":
		return SOURCE_GTFS, nil
	default:
		return SOURCE_RANDOM, errors.New("unknown source type")
	}
}
