package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Expected default workers %d, got %d", DefaultWorkers, cfg.Workers)
	}
	if cfg.MaxObjects != 0 {
		t.Errorf("Expected unlimited maxObjects by default, got %d", cfg.MaxObjects)
	}
	if cfg.TimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30s default timeout, got %v", cfg.TimeoutDuration())
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
inferenceBaseURL: http://file-host
httpPort: 9000
inferencePath: /detect
username: fileuser
password: filepass
bucketName: file-bucket
labels:
  - car
  - truck
workers: 2
maxObjects: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	// Env should win over the file
	t.Setenv("INFERENCE_BASE_URL", "http://env-host")
	t.Setenv("INFERENCE_HTTP_PORT", "9100")
	t.Setenv("TARGET_LABELS", "car pedestrian traffic_light")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.InferenceBaseURL != "http://env-host" {
		t.Errorf("Env override lost: %s", cfg.InferenceBaseURL)
	}
	if cfg.HTTPPort != 9100 {
		t.Errorf("Expected port 9100, got %d", cfg.HTTPPort)
	}
	// Fields without env overrides keep file values
	if cfg.Bucket != "file-bucket" || cfg.Username != "fileuser" || cfg.Workers != 2 || cfg.MaxObjects != 5 {
		t.Errorf("File values lost: %+v", cfg)
	}
	if len(cfg.Labels) != 3 || cfg.Labels[0] != "car" || cfg.Labels[2] != "traffic_light" {
		t.Errorf("TARGET_LABELS not split on spaces: %v", cfg.Labels)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestParseLabels(t *testing.T) {
	got := ParseLabels("  car   pedestrian\ttruck ")
	want := []string{"car", "pedestrian", "truck"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d labels, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Label %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		InferenceBaseURL: "http://host",
		Bucket:           "b",
		Labels:           []string{"car"},
		Workers:          1,
		Timeout:          "10s",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"Missing base URL", func(c *Config) { c.InferenceBaseURL = "" }, true},
		{"Missing bucket", func(c *Config) { c.Bucket = "" }, true},
		{"No labels", func(c *Config) { c.Labels = nil }, true},
		{"Zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"Negative maxObjects", func(c *Config) { c.MaxObjects = -1 }, true},
		{"Bad timeout", func(c *Config) { c.Timeout = "soon" }, true},
		{"Empty credentials allowed", func(c *Config) { c.Username, c.Password = "", "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Labels = append([]string(nil), valid.Labels...)
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
