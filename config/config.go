// Package config loads the resource-budget settings a microcontroller
// deployment pins ahead of time: node pool size, frame arena word count,
// open-stream capacity, and whether the procedure table is capped
// (§6.1/§4.1). The atom table has no setting here. Grounded on
// gprobe's loadConfig (github.com/naoina/toml), trimmed to this module's
// flat settings instead of a nested node/probe/metrics tree.
package config

import (
	"bufio"
	"errors"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// Config mirrors the constants a desktop build leaves at their defaults and
// a constrained build pins explicitly (§4.1 Failure, §4.4 Extend, §5 Shared
// resources).
type Config struct {
	NodeCapacity    int `toml:"node_capacity"`    // heap.New capacity; 0 = unbounded
	ArenaWords      int `toml:"arena_words"`      // frame.New capacity; 0 = unbounded
	StreamCapacity  int `toml:"stream_capacity"`  // ioface.New capacity; 0 = ioface.DefaultCapacity
	MaxProcedures   int `toml:"max_procedures"`   // not read: a capped workspace always uses workspace.MaxProcedures (128)
	Capped          bool `toml:"capped"`          // whether to enforce workspace.MaxProcedures
}

// Default matches the reference implementation's unbounded desktop profile.
func Default() Config {
	return Config{}
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
}

// Load reads a logo.toml file, starting from Default() and overriding only
// the fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	return cfg, err
}
