package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Sim.MinTick != time.Second || cfg.Sim.MaxTick != 5*time.Second {
		t.Errorf("tick bounds = %v..%v", cfg.Sim.MinTick, cfg.Sim.MaxTick)
	}
	if cfg.Sim.MaxDriftPct != 0.02 {
		t.Errorf("drift = %v, want 0.02", cfg.Sim.MaxDriftPct)
	}
	if len(cfg.Instruments) != 5 {
		t.Fatalf("seed instruments = %d, want 5", len(cfg.Instruments))
	}
	if cfg.Instruments[0].Symbol != "PETR4" || cfg.Instruments[0].Price != 28.50 {
		t.Errorf("first seed = %+v", cfg.Instruments[0])
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("SIM_MIN_TICK_MS", "100")
	t.Setenv("SIM_MAX_TICK_MS", "250")
	t.Setenv("SIM_MAX_DRIFT_PCT", "0.05")
	t.Setenv("SUB_QUEUE_SIZE", "128")

	cfg := LoadFromEnv("")

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen addr = %s", cfg.Server.ListenAddr)
	}
	if cfg.Sim.MinTick != 100*time.Millisecond || cfg.Sim.MaxTick != 250*time.Millisecond {
		t.Errorf("tick bounds = %v..%v", cfg.Sim.MinTick, cfg.Sim.MaxTick)
	}
	if cfg.Sim.MaxDriftPct != 0.05 {
		t.Errorf("drift = %v", cfg.Sim.MaxDriftPct)
	}
	if cfg.Server.SubQueueSize != 128 {
		t.Errorf("queue size = %d", cfg.Server.SubQueueSize)
	}
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("SIM_MIN_TICK_MS", "not-a-number")
	t.Setenv("SUB_QUEUE_SIZE", "-3")

	cfg := LoadFromEnv("")

	if cfg.Sim.MinTick != time.Second {
		t.Errorf("min tick = %v, want default", cfg.Sim.MinTick)
	}
	if cfg.Server.SubQueueSize != 64 {
		t.Errorf("queue size = %d, want default", cfg.Server.SubQueueSize)
	}
}

func TestLoadInstruments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instruments.yaml")
	data := `instruments:
  - symbol: TEST3
    name: Test Co
    price: 12.34
  - symbol: DEMO4
    name: Demo SA
    price: 5.67
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	seeds, err := LoadInstruments(path)
	if err != nil {
		t.Fatalf("LoadInstruments: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("seeds = %d, want 2", len(seeds))
	}
	if seeds[0].Symbol != "TEST3" || seeds[0].Price != 12.34 {
		t.Errorf("first seed = %+v", seeds[0])
	}
}

func TestLoadInstrumentsRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data string
	}{
		{"empty list", "instruments: []\n"},
		{"missing symbol", "instruments:\n  - name: X\n    price: 1\n"},
		{"bad price", "instruments:\n  - symbol: A\n    name: X\n    price: -1\n"},
		{"not yaml", "{{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadInstruments(path); err == nil {
				t.Fatal("LoadInstruments() = nil error, want rejection")
			}
		})
	}

	if _, err := LoadInstruments(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
