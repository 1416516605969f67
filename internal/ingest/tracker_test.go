package ingest

import (
	"marketintel/internal/model"
	"testing"
)

func TestEvaluateChangeInitialBaseline(t *testing.T) {
	eval := evaluateChange("hello world", "")
	if !eval.HasChanged {
		t.Fatal("first observation should always be reported as changed")
	}
	if eval.ThreatLevel != model.ThreatLow {
		t.Fatalf("expected low threat on baseline, got %s", eval.ThreatLevel)
	}
}

func TestEvaluateChangeDetectsDelta(t *testing.T) {
	prev := hashContent("hello world")
	eval := evaluateChange("hello world, updated", prev)
	if !eval.HasChanged {
		t.Fatal("expected change detected for different content")
	}
	if eval.ThreatLevel != model.ThreatMedium {
		t.Fatalf("expected medium threat on change, got %s", eval.ThreatLevel)
	}
}

func TestEvaluateChangeNoDelta(t *testing.T) {
	prev := hashContent("hello world")
	eval := evaluateChange("hello world", prev)
	if eval.HasChanged {
		t.Fatal("expected no change for identical content")
	}
	if eval.ThreatLevel != model.ThreatLow {
		t.Fatalf("expected low threat on no-change, got %s", eval.ThreatLevel)
	}
}
