package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// readCandles parses symbol,timestamp,open,high,low,close rows grouped by
// symbol in file order. A header row is skipped; timestamps are RFC3339 or
// unix seconds.
func readCandles(r io.Reader) (map[string][]domain.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	out := make(map[string][]domain.Candle)
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("readCandles: %w", err)
		}
		if n == 1 && strings.EqualFold(rec[0], "symbol") {
			continue
		}
		c, err := parseCandle(rec)
		if err != nil {
			return nil, fmt.Errorf("readCandles: record %d: %w", n, err)
		}
		out[c.Symbol] = append(out[c.Symbol], c)
	}
}

func parseCandle(rec []string) (domain.Candle, error) {
	symbol := strings.TrimSpace(rec[0])
	if symbol == "" {
		return domain.Candle{}, errors.New("empty symbol")
	}
	ts, err := parseTimestamp(strings.TrimSpace(rec[1]))
	if err != nil {
		return domain.Candle{}, err
	}
	var px [4]float64
	for i := range px {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[2+i]), 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("column %d: %w", 3+i, err)
		}
		px[i] = v
	}
	return domain.Candle{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      px[0],
		High:      px[1],
		Low:       px[2],
		Close:     px[3],
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
