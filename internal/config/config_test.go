package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestViperConfig_Sub(t *testing.T) {
	v := viper.New()
	v.Set("catalog.url", "https://example.com/devices.json")
	v.Set("catalog.fetch_timeout", "15s")
	v.Set("catalog.watch", true)
	v.Set("catalog.fetch_retries", 5)

	cat := New(v).Sub("catalog")

	if got := cat.GetString("url"); got != "https://example.com/devices.json" {
		t.Errorf("url = %q", got)
	}
	if got := cat.GetDuration("fetch_timeout"); got != 15*time.Second {
		t.Errorf("fetch_timeout = %v", got)
	}
	if !cat.GetBool("watch") {
		t.Error("watch = false, want true")
	}
	if got := cat.GetInt("fetch_retries"); got != 5 {
		t.Errorf("fetch_retries = %d", got)
	}
	if cat.IsSet("path") {
		t.Error("path should not be set")
	}
}

func TestViperConfig_MissingSection(t *testing.T) {
	cfg := New(nil).Sub("nope")
	if cfg == nil {
		t.Fatal("Sub returned nil")
	}
	if cfg.GetString("anything") != "" {
		t.Error("expected empty value from missing section")
	}
}

func TestViperConfig_Unmarshal(t *testing.T) {
	v := viper.New()
	v.Set("items_per_page", 48)

	var target struct {
		ItemsPerPage int `mapstructure:"items_per_page"`
	}
	if err := New(v).Unmarshal(&target); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if target.ItemsPerPage != 48 {
		t.Errorf("ItemsPerPage = %d, want 48", target.ItemsPerPage)
	}
}
