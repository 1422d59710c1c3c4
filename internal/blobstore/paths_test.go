package blobstore_test

import (
	"strings"
	"testing"
	"time"

	"intake/internal/blobstore"
	"intake/internal/docstore"
)

func TestObjectPath(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	got := blobstore.ObjectPath("driver-42", docstore.KindDamagePhoto, at, "jpg")
	want := "driver-42/damage_photo/20260314T092653.589793238Z_damage_photo.jpg"
	if got != want {
		t.Fatalf("ObjectPath = %q, want %q", got, want)
	}
}

func TestObjectPathSanitizesOwner(t *testing.T) {
	at := time.Now().UTC()
	got := blobstore.ObjectPath("../evil/owner", docstore.KindOther, at, ".PNG")
	if strings.Contains(got, "..") {
		t.Fatalf("expected traversal stripped, got %q", got)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Fatalf("expected lowercase extension, got %q", got)
	}
}

func TestTempAndPermanentPaths(t *testing.T) {
	temp := blobstore.TempPath("sess-1", "page_2.png")
	if temp != "temp/sess-1/page_2.png" {
		t.Fatalf("TempPath = %q", temp)
	}

	perm := blobstore.PermanentPath("driver-42", "incident-9", docstore.CategoryIncidentReport, "page_2.png")
	if perm != "permanent/driver-42/incident-9/incident_report/page_2.png" {
		t.Fatalf("PermanentPath = %q", perm)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		fileName    string
		contentType string
		want        string
	}{
		{"photo.JPG", "", "jpg"},
		{"scan.pdf", "image/png", "pdf"},
		{"noext", "image/jpeg", "jpg"},
		{"noext", "image/png", "png"},
		{"noext", "application/pdf", "pdf"},
		{"noext", "application/octet-stream", "bin"},
	}
	for _, tc := range cases {
		if got := blobstore.ExtensionFor(tc.fileName, tc.contentType); got != tc.want {
			t.Errorf("ExtensionFor(%q, %q) = %q, want %q", tc.fileName, tc.contentType, got, tc.want)
		}
	}
}
