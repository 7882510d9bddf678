package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	p := Default()

	if p.WindowSize != 50 {
		t.Errorf("WindowSize = %d, want 50", p.WindowSize)
	}
	if !math.IsInf(p.MaxEdgeLength, 1) {
		t.Errorf("MaxEdgeLength = %v, want +Inf", p.MaxEdgeLength)
	}
	if p.MaxDimension != 1 {
		t.Errorf("MaxDimension = %d, want 1", p.MaxDimension)
	}
	if p.FieldCharacteristic != 11 {
		t.Errorf("FieldCharacteristic = %d, want 11", p.FieldCharacteristic)
	}
	if p.MinPersistence != 0 {
		t.Errorf("MinPersistence = %v, want 0", p.MinPersistence)
	}
	if p.HomologyDimension != 1 {
		t.Errorf("HomologyDimension = %d, want 1", p.HomologyDimension)
	}
	if p.NormExponent != 1 {
		t.Errorf("NormExponent = %v, want 1", p.NormExponent)
	}
	if p.Distance != DistanceEuclidean {
		t.Errorf("Distance = %q, want %q", p.Distance, DistanceEuclidean)
	}
	if p.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", p.Workers)
	}
	if p.OnWindowError != FailAbort {
		t.Errorf("OnWindowError = %q, want %q", p.OnWindowError, FailAbort)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.json")

	testJSON := `{
  "window_size": 20,
  "max_edge_length": 1.5,
  "cpx_dimension": 2,
  "field_charac": 3,
  "min_persistence": -1,
  "distance": "chebyshev",
  "workers": 4,
  "on_window_error": "skip"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	p := cfg.Resolve()
	want := Pipeline{
		WindowSize:          20,
		MaxEdgeLength:       1.5,
		MaxDimension:        2,
		FieldCharacteristic: 3,
		MinPersistence:      -1,
		HomologyDimension:   DefaultHomologyDimension,
		NormExponent:        DefaultNormExponent,
		Distance:            DistanceChebyshev,
		Workers:             4,
		OnWindowError:       FailSkip,
		ProgressEvery:       DefaultProgressEvery,
	}
	if p != want {
		t.Errorf("Resolve() = %+v, want %+v", p, want)
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "nope.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"non-prime field", write("np.json", `{"field_charac": 12}`), "must be prime"},
		{"negative threshold", write("neg.json", `{"max_edge_length": -0.5}`), "max_edge_length"},
		{"unknown distance", write("dist.json", `{"distance": "cosine"}`), "unknown distance"},
		{"bad policy", write("pol.json", `{"on_window_error": "retry"}`), "on_window_error"},
		{"small exponent", write("q.json", `{"norm_exponent": 0.5}`), "norm_exponent"},
		{"zero window", write("w.json", `{"window_size": 0}`), "window_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFileConfig(tt.path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	p := cfg.Resolve()
	if p.WindowSize != DefaultWindowSize {
		t.Errorf("defaults file window_size = %d, want %d", p.WindowSize, DefaultWindowSize)
	}
	if p.FieldCharacteristic != DefaultFieldCharacteristic {
		t.Errorf("defaults file field_charac = %d, want %d", p.FieldCharacteristic, DefaultFieldCharacteristic)
	}
	if !math.IsInf(p.MaxEdgeLength, 1) {
		t.Errorf("defaults file should leave max_edge_length unbounded, got %v", p.MaxEdgeLength)
	}
}

func TestIsPrime(t *testing.T) {
	primes := []int{2, 3, 5, 7, 11, 13, 101, 65537}
	for _, p := range primes {
		if !IsPrime(p) {
			t.Errorf("IsPrime(%d) = false, want true", p)
		}
	}
	composites := []int{-7, 0, 1, 4, 9, 12, 100, 65535}
	for _, n := range composites {
		if IsPrime(n) {
			t.Errorf("IsPrime(%d) = true, want false", n)
		}
	}
}
