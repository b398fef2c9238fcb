package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "nested", "booth.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetBoothSettings_BootstrapsDefaults(t *testing.T) {
	db := newTestDatabase(t)

	got, err := db.GetBoothSettings()
	if err != nil {
		t.Fatalf("GetBoothSettings: %v", err)
	}
	want := DefaultBoothSettings()
	if *got != *want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
	if got.TotalShots != 4 || got.CountdownSeconds != 3 || got.Template != "strip" {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestUpsertBoothSettings_RoundTrip(t *testing.T) {
	db := newTestDatabase(t)

	s := DefaultBoothSettings()
	s.TotalShots = 2
	s.CountdownSeconds = 0
	s.Template = "grid"
	s.Caption = "Jane & Sam"
	s.LogoPosition = "top-left"
	if err := db.UpsertBoothSettings(s); err != nil {
		t.Fatalf("UpsertBoothSettings: %v", err)
	}

	s.TotalShots = 6
	if err := db.UpsertBoothSettings(s); err != nil {
		t.Fatalf("second UpsertBoothSettings: %v", err)
	}

	got, err := db.GetBoothSettings()
	if err != nil {
		t.Fatalf("GetBoothSettings: %v", err)
	}
	if *got != *s {
		t.Errorf("settings = %+v, want %+v", got, s)
	}
}

func TestUpsertBoothSettings_RejectsInvalid(t *testing.T) {
	db := newTestDatabase(t)

	s := DefaultBoothSettings()
	s.TotalShots = 0
	if err := db.UpsertBoothSettings(s); err == nil {
		t.Error("expected error for zero shots, got nil")
	}
}

func TestLogo(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.GetLogo(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLogo before upload err = %v, want ErrNotFound", err)
	}

	data := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	if err := db.UpsertLogo(&Logo{Data: data, ContentType: "image/png"}); err != nil {
		t.Fatalf("UpsertLogo: %v", err)
	}
	logo, err := db.GetLogo()
	if err != nil {
		t.Fatalf("GetLogo: %v", err)
	}
	if !bytes.Equal(logo.Data, data) || logo.ContentType != "image/png" {
		t.Errorf("logo = %+v", logo)
	}

	if err := db.DeleteLogo(); err != nil {
		t.Fatalf("DeleteLogo: %v", err)
	}
	if _, err := db.GetLogo(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLogo after delete err = %v, want ErrNotFound", err)
	}
}

func TestAdminHash(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.GetAdminHash(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAdminHash err = %v, want ErrNotFound", err)
	}
	if err := db.UpsertAdminHash("first"); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertAdminHash("second"); err != nil {
		t.Fatal(err)
	}
	hash, err := db.GetAdminHash()
	if err != nil {
		t.Fatalf("GetAdminHash: %v", err)
	}
	if hash != "second" {
		t.Errorf("hash = %q, want second", hash)
	}
}

func insertCaptures(t *testing.T, db *Database, names ...string) {
	t.Helper()
	for _, name := range names {
		order, err := db.GetMaxOrder()
		if err != nil {
			t.Fatal(err)
		}
		c := &Capture{
			Name:      name,
			Template:  "strip",
			ShotCount: 4,
			Order:     order,
			CreatedAt: time.Date(2024, 6, 1, 12, order, 0, 0, time.UTC),
		}
		if err := db.InsertCapture(c); err != nil {
			t.Fatalf("InsertCapture(%s): %v", name, err)
		}
	}
}

func TestCaptures(t *testing.T) {
	db := newTestDatabase(t)
	insertCaptures(t, db, "a.png", "b.png", "c.png")

	count, err := db.GetCaptureCount()
	if err != nil || count != 3 {
		t.Fatalf("GetCaptureCount = %d, %v; want 3", count, err)
	}

	page, err := db.GetCaptures(2, 0)
	if err != nil {
		t.Fatalf("GetCaptures: %v", err)
	}
	if len(page) != 2 || page[0].Name != "c.png" || page[1].Name != "b.png" {
		t.Errorf("first page = %+v, want c.png, b.png", page)
	}

	oldest, err := db.GetOldestCaptures(1)
	if err != nil {
		t.Fatalf("GetOldestCaptures: %v", err)
	}
	if len(oldest) != 1 || oldest[0].Name != "a.png" {
		t.Errorf("oldest = %+v, want a.png", oldest)
	}

	c, err := db.GetCapture("b.png")
	if err != nil {
		t.Fatalf("GetCapture: %v", err)
	}
	if c.Order != 1 || c.ShotCount != 4 || !c.CreatedAt.Equal(time.Date(2024, 6, 1, 12, 1, 0, 0, time.UTC)) {
		t.Errorf("capture = %+v", c)
	}

	if err := db.SetCaptureRemoteKey("b.png", "booth/b.png"); err != nil {
		t.Fatalf("SetCaptureRemoteKey: %v", err)
	}
	c, _ = db.GetCapture("b.png")
	if c.RemoteKey != "booth/b.png" {
		t.Errorf("RemoteKey = %q", c.RemoteKey)
	}

	if err := db.DeleteCapture("b.png"); err != nil {
		t.Fatalf("DeleteCapture: %v", err)
	}
	if err := db.DeleteCapture("b.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCapture err = %v, want ErrNotFound", err)
	}
	if _, err := db.GetCapture("b.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCapture after delete err = %v, want ErrNotFound", err)
	}
	exists, err := db.CaptureExists("a.png")
	if err != nil || !exists {
		t.Errorf("CaptureExists(a.png) = %v, %v", exists, err)
	}

	names, err := db.GetAllCaptureNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v, want 2 entries", names)
	}
}

func TestGetMaxOrder_Empty(t *testing.T) {
	db := newTestDatabase(t)
	order, err := db.GetMaxOrder()
	if err != nil {
		t.Fatal(err)
	}
	if order != 0 {
		t.Errorf("GetMaxOrder on empty table = %d, want 0", order)
	}
}
