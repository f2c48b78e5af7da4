package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/data"
)

const archiveURL = "https://archive-api.open-meteo.com/v1/archive"

// archiveResponse is the part of the Open-Meteo archive answer we read.
// Missing days come back as null.
type archiveResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m_mean"`
	} `json:"daily"`
}

func main() {
	lat := flag.Float64("lat", 48.8566, "Latitude")
	lon := flag.Float64("lon", 2.3522, "Longitude")
	start := flag.String("start", time.Now().AddDate(0, -3, 0).Format("2006-01-02"), "First day (YYYY-MM-DD)")
	end := flag.String("end", time.Now().AddDate(0, 0, -1).Format("2006-01-02"), "Last day (YYYY-MM-DD)")
	format := flag.String("format", "lines", "Output format: lines (one value per line, ends with STOP) or csv")
	output := flag.String("output", "", "Output file path")
	flag.Parse()

	logger := common.NewLogger("info")

	if *output == "" {
		ext := "txt"
		if *format == "csv" {
			ext = "csv"
		}
		*output = fmt.Sprintf("data/temperatures_%s_%s.%s", *start, *end, ext)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(*lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(*lon, 'f', 4, 64))
	q.Set("start_date", *start)
	q.Set("end_date", *end)
	q.Set("daily", "temperature_2m_mean")
	q.Set("timezone", "UTC")

	logger.Info().Str("start", *start).Str("end", *end).Msg("fetching daily mean temperatures from open-meteo")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	days, err := fetch(ctx, archiveURL+"?"+q.Encode())
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to fetch temperatures")
		os.Exit(1)
	}
	logger.Info().Int("days", len(days)).Msg("fetched temperatures")

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to create output directory")
		os.Exit(1)
	}

	if err := write(*output, *format, days); err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to write output")
		os.Exit(1)
	}
	logger.Info().Str("path", *output).Msg("saved")
}

type day struct {
	date  string
	value float64
}

func fetch(ctx context.Context, u string) ([]day, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo returned %s", resp.Status)
	}

	var body archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	days := make([]day, 0, len(body.Daily.Time))
	for i, date := range body.Daily.Time {
		if i >= len(body.Daily.Temperature) || body.Daily.Temperature[i] == nil {
			continue
		}
		days = append(days, day{date: date, value: *body.Daily.Temperature[i]})
	}
	return days, nil
}

func write(path, format string, days []day) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == "csv" {
		w := csv.NewWriter(f)
		// the value column is read with -column temperature
		if err := w.Write([]string{"date", "temperature"}); err != nil {
			return err
		}
		for _, d := range days {
			if err := w.Write([]string{d.date, strconv.FormatFloat(d.value, 'f', -1, 64)}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}

	for _, d := range days {
		if _, err := fmt.Fprintln(f, strconv.FormatFloat(d.value, 'f', -1, 64)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(f, data.DefaultSentinel)
	return err
}
