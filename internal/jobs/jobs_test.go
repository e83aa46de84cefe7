package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang-ar-analytics-service/internal/ardata"
	"golang-ar-analytics-service/internal/fetch"
)

func TestRefresher_InvalidSchedule(t *testing.T) {
	model := ardata.NewModel(fetch.NewFileSource("unused.csv"), nil)
	r := NewRefresher(model, "not a schedule", time.Second)
	if err := r.Start(); err == nil {
		t.Error("expected error for invalid cron schedule")
	}
}

func TestRefresher_RunLoadsModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extract.csv")
	data := []byte("Customer Name,Total in USD\nAcme,100\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	model := ardata.NewModel(fetch.NewFileSource(path), nil)
	r := NewRefresher(model, "* * * * *", time.Second)

	r.run()
	if !model.Loaded() {
		t.Fatal("expected model loaded after run")
	}

	// A failing run keeps the previous snapshot.
	os.Remove(path)
	r.run()
	if !model.Loaded() || model.Dataset().Len() != 1 {
		t.Error("failed run should keep previous snapshot")
	}
}

func TestRefresher_StartStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extract.csv")
	os.WriteFile(path, []byte("A\n1\n"), 0o644)

	model := ardata.NewModel(fetch.NewFileSource(path), nil)
	r := NewRefresher(model, "@hourly", time.Second)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Stop()
}
