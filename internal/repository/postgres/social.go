package postgres

import (
	"context"
	"fmt"

	"marketintel/internal/model"
)

// UpsertSocialSignal stores one (ticker, platform, signal_date) row.
func (s *Store) UpsertSocialSignal(ctx context.Context, sig model.SocialSignal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO social_signals (ticker, platform, signal_date, mention_count, avg_sentiment, top_posts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker, platform, signal_date) DO UPDATE SET
			mention_count = EXCLUDED.mention_count,
			avg_sentiment = EXCLUDED.avg_sentiment,
			top_posts = EXCLUDED.top_posts
	`, sig.Ticker, sig.Platform, sig.SignalDate, sig.MentionCount, sig.AvgSentiment, sig.TopPosts)
	if err != nil {
		return fmt.Errorf("upsert social signal %s/%s: %w", sig.Ticker, sig.Platform, err)
	}
	return nil
}

// GetSocialSignals returns signals for ticker within the last `days` days.
func (s *Store) GetSocialSignals(ctx context.Context, ticker string, days int) ([]model.SocialSignal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ticker, platform, signal_date, mention_count, avg_sentiment, top_posts
		FROM social_signals
		WHERE ticker = $1 AND signal_date > CURRENT_DATE - $2::int
		ORDER BY signal_date DESC
	`, ticker, days)
	if err != nil {
		return nil, fmt.Errorf("get social signals %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []model.SocialSignal
	for rows.Next() {
		var sig model.SocialSignal
		if err := rows.Scan(&sig.Ticker, &sig.Platform, &sig.SignalDate, &sig.MentionCount, &sig.AvgSentiment, &sig.TopPosts); err != nil {
			return nil, fmt.Errorf("scan social signal row: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
