package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sim controls the background price simulation.
type Sim struct {
	MinTick time.Duration // lower bound of the randomized tick interval
	MaxTick time.Duration // upper bound (exclusive)
	// MaxDriftPct bounds the relative price change per tick.
	// A tick draws a delta uniformly in [-MaxDriftPct, +MaxDriftPct].
	MaxDriftPct float64
}

type Server struct {
	ListenAddr string
	LogFile    string
	// SubQueueSize is the per-subscriber event buffer. A subscriber whose
	// queue overflows is treated as unreachable and evicted.
	SubQueueSize int
}

// SeedInstrument is one entry of the instrument seed list.
type SeedInstrument struct {
	Symbol string  `yaml:"symbol"`
	Name   string  `yaml:"name"`
	Price  float64 `yaml:"price"`
}

type Config struct {
	Sim         Sim
	Server      Server
	Instruments []SeedInstrument
}

func Default() Config {
	return Config{
		Sim: Sim{
			MinTick:     1 * time.Second,
			MaxTick:     5 * time.Second,
			MaxDriftPct: 0.02,
		},
		Server: Server{
			ListenAddr:   ":8080",
			LogFile:      "data/bolsad.log",
			SubQueueSize: 64,
		},
		Instruments: []SeedInstrument{
			{Symbol: "PETR4", Name: "Petrobras", Price: 28.50},
			{Symbol: "VALE3", Name: "Vale", Price: 68.20},
			{Symbol: "ITUB4", Name: "Itaú Unibanco", Price: 32.90},
			{Symbol: "BBDC4", Name: "Bradesco", Price: 20.15},
			{Symbol: "ABEV3", Name: "Ambev", Price: 14.80},
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if lf := os.Getenv("LOG_FILE"); lf != "" {
		cfg.Server.LogFile = lf
	}
	if qs := os.Getenv("SUB_QUEUE_SIZE"); qs != "" {
		if n, err := strconv.Atoi(qs); err == nil && n > 0 {
			cfg.Server.SubQueueSize = n
		}
	}

	if ms := os.Getenv("SIM_MIN_TICK_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			cfg.Sim.MinTick = time.Duration(n) * time.Millisecond
		}
	}
	if ms := os.Getenv("SIM_MAX_TICK_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			cfg.Sim.MaxTick = time.Duration(n) * time.Millisecond
		}
	}
	if pct := os.Getenv("SIM_MAX_DRIFT_PCT"); pct != "" {
		if f, err := strconv.ParseFloat(pct, 64); err == nil && f > 0 {
			cfg.Sim.MaxDriftPct = f
		}
	}

	if path := os.Getenv("INSTRUMENTS_FILE"); path != "" {
		if seeds, err := LoadInstruments(path); err == nil {
			cfg.Instruments = seeds
		}
	}

	return cfg
}

// LoadInstruments reads an instrument seed list from a YAML file.
//
//	instruments:
//	  - symbol: PETR4
//	    name: Petrobras
//	    price: 28.50
func LoadInstruments(path string) ([]SeedInstrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instruments file: %w", err)
	}

	var doc struct {
		Instruments []SeedInstrument `yaml:"instruments"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse instruments file: %w", err)
	}
	if len(doc.Instruments) == 0 {
		return nil, fmt.Errorf("instruments file %s: no entries", path)
	}
	for _, s := range doc.Instruments {
		if s.Symbol == "" || s.Price <= 0 {
			return nil, fmt.Errorf("instruments file %s: bad entry %+v", path, s)
		}
	}
	return doc.Instruments, nil
}
