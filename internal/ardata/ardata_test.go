package ardata

import (
	"context"
	"testing"
	"time"

	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/pkg/errors"
)

// fakeSource serves fixed bytes or a fixed error.
type fakeSource struct {
	data []byte
	info fetch.FileInfo
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, fetch.FileInfo, error) {
	if f.err != nil {
		return nil, fetch.FileInfo{}, f.err
	}
	return f.data, f.info, nil
}

func TestModel_Load(t *testing.T) {
	source := &fakeSource{
		data: []byte("Customer ID,Customer Name,Total in USD\nC1,Acme,\"1,000\"\n,,500\n"),
		info: fetch.FileInfo{Name: "extract.csv", LastModified: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	model := NewModel(source, nil)

	if model.Loaded() {
		t.Error("expected Loaded() false before first load")
	}
	if err := model.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ds := model.Dataset()
	if ds == nil || ds.Len() != 2 {
		t.Fatalf("expected 2 cleaned rows, got %v", ds)
	}
	rows := ds.Rows()
	if rows[0].TotalUSD != 1000 {
		t.Errorf("TotalUSD = %v, want 1000", rows[0].TotalUSD)
	}
	if rows[1].CustomerName != "Acme" {
		t.Errorf("expected forward-filled customer, got %q", rows[1].CustomerName)
	}
	if model.FileInfo().Name != "extract.csv" {
		t.Errorf("FileInfo().Name = %q", model.FileInfo().Name)
	}
}

func TestModel_FetchFailureKeepsSnapshot(t *testing.T) {
	source := &fakeSource{
		data: []byte("Customer Name,Total in USD\nAcme,100\n"),
		info: fetch.FileInfo{Name: "good.csv"},
	}
	model := NewModel(source, nil)
	if err := model.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	source.err = errors.FetchError(errors.CodeFetchFailed, "remote", nil)
	if err := model.Load(context.Background()); err == nil {
		t.Fatal("expected error from failed fetch")
	}

	if ds := model.Dataset(); ds == nil || ds.Len() != 1 {
		t.Error("previous snapshot should survive a failed load")
	}
	if model.FileInfo().Name != "good.csv" {
		t.Error("previous file metadata should survive a failed load")
	}
}

func TestModel_ParseFailureKeepsSnapshot(t *testing.T) {
	source := &fakeSource{
		data: []byte("Customer Name,Total in USD\nAcme,100\n"),
		info: fetch.FileInfo{Name: "good.csv"},
	}
	model := NewModel(source, nil)
	if err := model.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	source.data = []byte{0x00, 0x01, 0xff}
	source.info = fetch.FileInfo{Name: "bad.bin"}
	if err := model.Load(context.Background()); err == nil {
		t.Fatal("expected error from unparseable extract")
	}

	if model.FileInfo().Name != "good.csv" {
		t.Error("previous snapshot should survive a failed parse")
	}
}
