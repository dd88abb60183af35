package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeSettings(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("Valid Document", func(t *testing.T) {
		path := writeSettings(t, tempDir, `{"center_freq": 416.588, "uniform_gain": 15.7}`)
		store := NewStore(path)

		doc, err := store.Read()
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if doc["center_freq"] != 416.588 {
			t.Errorf("Expected center_freq 416.588, got %v", doc["center_freq"])
		}
	})

	t.Run("Missing Document", func(t *testing.T) {
		store := NewStore(filepath.Join(tempDir, "does-not-exist.json"))
		_, err := store.Read()
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got: %v", err)
		}
	})

	t.Run("Corrupt Document", func(t *testing.T) {
		path := writeSettings(t, tempDir, `{"center_freq": 416.5`)
		store := NewStore(path)
		_, err := store.Read()
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("Expected ErrCorrupt, got: %v", err)
		}
	})
}

func TestApply(t *testing.T) {
	t.Run("Targeted Keys Only", func(t *testing.T) {
		path := writeSettings(t, t.TempDir(),
			`{"center_freq": 416.588, "uniform_gain": 15.7, "station_id": "NOCALL", "vfo_freq_0": 416588000}`)
		store := NewStore(path)

		doc, err := store.Apply(func(doc Document) (Document, error) {
			doc["uniform_gain"] = 29.7
			return doc, nil
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if doc["uniform_gain"] != 29.7 {
			t.Errorf("Expected uniform_gain 29.7, got %v", doc["uniform_gain"])
		}

		// Unrelated keys survive the round trip
		reloaded, err := store.Read()
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if reloaded["center_freq"] != 416.588 {
			t.Errorf("Expected center_freq 416.588, got %v", reloaded["center_freq"])
		}
		if reloaded["station_id"] != "NOCALL" {
			t.Errorf("Expected station_id NOCALL, got %v", reloaded["station_id"])
		}
		if reloaded["vfo_freq_0"] != 416588000.0 {
			t.Errorf("Expected vfo_freq_0 416588000, got %v", reloaded["vfo_freq_0"])
		}
	})

	t.Run("No-Op Mutation Skips Write", func(t *testing.T) {
		// Compact formatting as a marker: any rewrite would re-indent
		path := writeSettings(t, t.TempDir(), `{"uniform_gain":15.7}`)
		store := NewStore(path)

		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read settings file: %v", err)
		}

		_, err = store.Apply(func(doc Document) (Document, error) {
			doc["uniform_gain"] = 15.7
			return doc, nil
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read settings file: %v", err)
		}
		if string(before) != string(after) {
			t.Error("Expected no write for a no-op mutation, file changed")
		}
	})

	t.Run("Mutation Error Aborts Write", func(t *testing.T) {
		path := writeSettings(t, t.TempDir(), `{"uniform_gain":15.7}`)
		store := NewStore(path)

		before, _ := os.ReadFile(path)

		wantErr := errors.New("vfo_index out of range")
		_, err := store.Apply(func(doc Document) (Document, error) {
			doc["uniform_gain"] = 29.7
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("Expected mutation error back, got: %v", err)
		}

		after, _ := os.ReadFile(path)
		if string(before) != string(after) {
			t.Error("Expected no write after mutation error, file changed")
		}
	})

	t.Run("Missing Document", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "missing.json"))
		_, err := store.Apply(func(doc Document) (Document, error) {
			return doc, nil
		})
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got: %v", err)
		}
	})
}

func TestApplySerialization(t *testing.T) {
	path := writeSettings(t, t.TempDir(), `{"center_freq": 416.588}`)
	store := NewStore(path)

	// Writers touching disjoint keys must never lose each other's update
	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			value := fmt.Sprintf("gain-%d", i)
			if _, err := store.Apply(func(doc Document) (Document, error) {
				doc["uniform_gain"] = value
				return doc, nil
			}); err != nil {
				t.Errorf("gain writer: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			value := fmt.Sprintf("vfo-%d", i)
			if _, err := store.Apply(func(doc Document) (Document, error) {
				doc["vfo_freq_0"] = value
				return doc, nil
			}); err != nil {
				t.Errorf("vfo writer: %v", err)
				return
			}
		}
	}()

	wg.Wait()

	doc, err := store.Read()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc["uniform_gain"] != fmt.Sprintf("gain-%d", rounds-1) {
		t.Errorf("Lost gain update, got %v", doc["uniform_gain"])
	}
	if doc["vfo_freq_0"] != fmt.Sprintf("vfo-%d", rounds-1) {
		t.Errorf("Lost vfo update, got %v", doc["vfo_freq_0"])
	}
	if doc["center_freq"] != 416.588 {
		t.Errorf("Expected center_freq 416.588, got %v", doc["center_freq"])
	}

	// The file on disk is always complete, parseable JSON
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read settings file: %v", err)
	}
	var onDisk map[string]interface{}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Errorf("Settings file not valid JSON after concurrent writes: %v", err)
	}
}

func TestClone(t *testing.T) {
	doc := Document{
		"center_freq":  416.588,
		"vfo_settings": map[string]interface{}{"bw": 12500.0},
	}

	copied := doc.Clone()
	copied["center_freq"] = 100.0
	copied["vfo_settings"].(map[string]interface{})["bw"] = 1.0

	if doc["center_freq"] != 416.588 {
		t.Errorf("Clone shares top-level values, got %v", doc["center_freq"])
	}
	if doc["vfo_settings"].(map[string]interface{})["bw"] != 12500.0 {
		t.Error("Clone shares nested maps")
	}
}
