package model

import "testing"

func TestSha256BytesKnownVector(t *testing.T) {
	got := Sha256Bytes([]byte(""))
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("Sha256Bytes(\"\") = %s, want %s", got, want)
	}
}

func TestNewCommandOutputEvidence(t *testing.T) {
	ev := NewCommandOutputEvidence("ev-1", "uname -a", []byte("Linux host 6.1.0"), "evidence/0001.txt")
	if ev.EvidenceType != EvidenceCommandOutput {
		t.Errorf("EvidenceType = %v, want %v", ev.EvidenceType, EvidenceCommandOutput)
	}
	if ev.SizeBytes != uint64(len("Linux host 6.1.0")) {
		t.Errorf("SizeBytes = %d", ev.SizeBytes)
	}
	if ev.ContentHash != Sha256Bytes([]byte("Linux host 6.1.0")) {
		t.Error("ContentHash does not match content")
	}
	if ev.Redacted {
		t.Error("new evidence should not start out redacted")
	}
}

func TestMarkRedacted(t *testing.T) {
	ev := NewFileEvidence("ev-2", EvidenceConfigFile, []byte("data"), "evidence/0002.txt", "/etc/app.conf")
	ev.MarkRedacted()
	if !ev.Redacted {
		t.Error("MarkRedacted should set Redacted=true")
	}
	if ev.OriginalPath == nil || *ev.OriginalPath != "/etc/app.conf" {
		t.Errorf("OriginalPath = %v, want /etc/app.conf", ev.OriginalPath)
	}
}
