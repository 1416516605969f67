package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketintel/internal/embedding"
	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func TestSourcePriorityFavorsHotQueryTokenMatch(t *testing.T) {
	matching := model.Source{Name: "Apple Investor Relations", URL: "https://investor.apple.com/feed"}
	unrelated := model.Source{Name: "Unrelated Blog", URL: "https://example.com/feed"}

	matchScore := sourcePriority(matching, []string{"apple earnings"}, nil)
	unrelatedScore := sourcePriority(unrelated, []string{"apple earnings"}, nil)

	if matchScore <= unrelatedScore {
		t.Fatalf("expected token-matching source to score higher: matched=%v unrelated=%v", matchScore, unrelatedScore)
	}
}

func TestSourcePriorityFavorsStaleSources(t *testing.T) {
	old := time.Now().Add(-72 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	stale := sourcePriority(model.Source{Name: "x", URL: "y"}, nil, &old)
	fresh := sourcePriority(model.Source{Name: "x", URL: "y"}, nil, &recent)

	if stale <= fresh {
		t.Fatalf("expected stale source to score higher: stale=%v fresh=%v", stale, fresh)
	}
}

func TestEnqueuePriorityReturnsTaskIDWithoutBlocking(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	if _, err := repo.AddSource(ctx, "Apple Filings", "https://example.com/apple", model.ConnectorWeb); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}

	policy := NewPolicyEngine(resty.New(), "test-agent", nil, false, false)
	connectors := NewConnectorRegistry(resty.New())
	embed := embedding.New(resty.New(), "http://127.0.0.1:1", "nomic-embed-text", 8)
	worker := NewWorker(repo, policy, connectors, embed, time.Minute, zerolog.Nop())
	queue := NewPriorityQueue(repo, worker, zerolog.Nop())

	taskID, err := queue.EnqueuePriority(ctx, "Apple earnings")
	if err != nil {
		t.Fatalf("EnqueuePriority returned error: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a non-empty task ID")
	}
}
