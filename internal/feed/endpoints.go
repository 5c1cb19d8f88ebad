package feed

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/odds-analyzer/pkg/models"
)

// Sports lists the in-season sports available on the API
func (c *Client) Sports(ctx context.Context) ([]models.Sport, error) {
	var sports []models.Sport
	if err := c.get(ctx, "/sports", nil, &sports); err != nil {
		return nil, err
	}
	return sports, nil
}

// Events lists upcoming and live events for a sport without odds.
// Costs no credits.
func (c *Client) Events(ctx context.Context, sportKey string) ([]models.Event, error) {
	var events []models.Event
	if err := c.get(ctx, "/sports/"+sportKey+"/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// OddsParams controls an odds query
type OddsParams struct {
	Regions    []string
	Markets    []string
	OddsFormat string
	Bookmakers []string
}

func (p OddsParams) values() url.Values {
	params := url.Values{}
	if len(p.Regions) > 0 {
		params.Set("regions", strings.Join(p.Regions, ","))
	}
	if len(p.Markets) > 0 {
		params.Set("markets", strings.Join(p.Markets, ","))
	}
	if p.OddsFormat != "" {
		params.Set("oddsFormat", p.OddsFormat)
	}
	if len(p.Bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(p.Bookmakers, ","))
	}
	return params
}

// Odds fetches featured-market odds for every event in a sport
func (c *Client) Odds(ctx context.Context, sportKey string, p OddsParams) ([]models.Event, error) {
	var events []models.Event
	if err := c.get(ctx, "/sports/"+sportKey+"/odds", p.values(), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EventOdds fetches odds for a single event. Required for prop and
// alternate-line markets, which the bulk odds endpoint does not serve.
func (c *Client) EventOdds(ctx context.Context, sportKey, eventID string, p OddsParams) (*models.Event, error) {
	var event models.Event
	if err := c.get(ctx, "/sports/"+sportKey+"/events/"+eventID+"/odds", p.values(), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Scores fetches scores for live and recently completed events
func (c *Client) Scores(ctx context.Context, sportKey string, daysFrom int) ([]models.Score, error) {
	params := url.Values{}
	if daysFrom > 0 {
		params.Set("daysFrom", strconv.Itoa(daysFrom))
	}
	var scores []models.Score
	if err := c.get(ctx, "/sports/"+sportKey+"/scores", params, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// PropsForEvents fetches prop odds for each event with at most
// maxConcurrent requests in flight. Per-event failures are logged and
// skipped so one bad event does not sink the batch.
func (c *Client) PropsForEvents(ctx context.Context, sportKey string, eventIDs []string, p OddsParams, maxConcurrent int) []models.Event {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]*models.Event, len(eventIDs))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, eventID := range eventIDs {
		wg.Add(1)
		go func(i int, eventID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			event, err := c.EventOdds(ctx, sportKey, eventID, p)
			if err != nil {
				c.log.Warn("prop fetch failed",
					zap.String("sport", sportKey),
					zap.String("event_id", eventID),
					zap.Error(err))
				return
			}
			results[i] = event
		}(i, eventID)
	}
	wg.Wait()

	events := make([]models.Event, 0, len(eventIDs))
	for _, ev := range results {
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}
