package camera

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("DefaultConfig should be valid, got %v", errs)
	}
	if !cfg.Mirror {
		t.Error("DefaultConfig should mirror frames")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"driver default resolution", func(c *Config) { c.Width, c.Height, c.Framerate = 0, 0, 0 }, 0},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"tiny width", func(c *Config) { c.Width = 10 }, 1},
		{"huge height", func(c *Config) { c.Height = 10000 }, 1},
		{"bad framerate", func(c *Config) { c.Framerate = 500 }, 1},
		{"everything wrong", func(c *Config) { c.Device, c.Width, c.Height, c.Framerate = -1, 1, 1, -1 }, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) != tc.errs {
				t.Errorf("Validate: got %d errors %v, want %d", len(errs), errs, tc.errs)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}

	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
	if got := GetPreset(Preset720p); got.Width != 1280 || got.Height != 720 {
		t.Errorf("720p preset: got %dx%d", got.Width, got.Height)
	}
}
