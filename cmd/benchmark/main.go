// Benchmark tool for replaying loan applications against Kestrel.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/applications.csv -url http://localhost:8080
//
// This tool:
//   1. Reads loan application rows (ai_score, volatility, requested,
//      duration_weeks, frequency, optional expected decision)
//   2. Sends each application to POST /loans/decide
//   3. Compares Kestrel's decision with the expected label when present
//   4. Reports decision distribution, agreement and throughput
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Application is one row of the replay file.
type Application struct {
	AIScore       int
	Volatility    float64
	Requested     float64
	DurationWeeks int
	Frequency     string
	Expected      string // optional decision label
}

// DecideRequest matches POST /loans/decide.
type DecideRequest struct {
	AIScore         int     `json:"aiScore"`
	Volatility      float64 `json:"volatility"`
	RequestedAmount float64 `json:"requestedAmount"`
	DurationWeeks   int     `json:"durationWeeks"`
	Frequency       string  `json:"frequency"`
}

// DecideResponse is the subset of the offer the benchmark inspects.
type DecideResponse struct {
	ID         string  `json:"id"`
	Decision   string  `json:"decision"`
	FinalScore float64 `json:"finalScore"`
	APR        float64 `json:"apr"`
	MaxOffer   int     `json:"maxOffer"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	Approved    int64
	NeedsReview int64
	Declined    int64

	Matches    int64 // decision agreed with expected label
	Mismatches int64
	Unlabeled  int64

	TotalProcessed   int64
	TotalErrors      int64
	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to applications CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	limit := flag.Int("limit", 10000, "Maximum applications to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each application result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/applications.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("KESTREL BENCHMARK - Loan Decision Replay")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Kestrel URL: %s\n", *baseURL)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("Kestrel is healthy")

	// Read applications
	fmt.Printf("\nReading applications from %s...\n", *csvPath)
	apps, err := readApplicationsCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d applications\n", len(apps))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(apps, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readApplicationsCSV(path string, limit int) ([]Application, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	col := func(record []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var apps []Application
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		aiScore, _ := strconv.Atoi(col(record, "ai_score"))
		volatility, _ := strconv.ParseFloat(col(record, "volatility"), 64)
		requested, _ := strconv.ParseFloat(col(record, "requested"), 64)
		weeks, _ := strconv.Atoi(col(record, "duration_weeks"))

		frequency := col(record, "frequency")
		if frequency == "" {
			frequency = "Weekly"
		}

		apps = append(apps, Application{
			AIScore:       aiScore,
			Volatility:    volatility,
			Requested:     requested,
			DurationWeeks: weeks,
			Frequency:     frequency,
			Expected:      col(record, "expected"),
		})

		if limit > 0 && len(apps) >= limit {
			break
		}
	}

	return apps, nil
}

func runBenchmark(apps []Application, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan Application, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for app := range work {
				start := time.Now()
				result, err := decideApplication(client, baseURL, app)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: score=%d -> %v\n", app.AIScore, err)
					}
					continue
				}

				switch result.Decision {
				case "Approved":
					atomic.AddInt64(&metrics.Approved, 1)
				case "NeedsReview":
					atomic.AddInt64(&metrics.NeedsReview, 1)
				case "Declined":
					atomic.AddInt64(&metrics.Declined, 1)
				}

				if app.Expected == "" {
					atomic.AddInt64(&metrics.Unlabeled, 1)
				} else if app.Expected == result.Decision {
					atomic.AddInt64(&metrics.Matches, 1)
				} else {
					atomic.AddInt64(&metrics.Mismatches, 1)
				}

				if verbose {
					fmt.Printf("score=%3d vol=%5.1f req=%8.2f | %-11s final=%.1f apr=%.2f max=%d\n",
						app.AIScore,
						app.Volatility,
						app.Requested,
						result.Decision,
						result.FinalScore,
						result.APR,
						result.MaxOffer,
					)
				}
			}
		}()
	}

	// Send work
	for _, app := range apps {
		work <- app
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func decideApplication(client *http.Client, baseURL string, app Application) (*DecideResponse, error) {
	req := DecideRequest{
		AIScore:         app.AIScore,
		Volatility:      app.Volatility,
		RequestedAmount: app.Requested,
		DurationWeeks:   app.DurationWeeks,
		Frequency:       app.Frequency,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(baseURL+"/loans/decide", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result DecideResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\nRESULTS")
	fmt.Printf("  Processed:    %d in %s\n", m.TotalProcessed, duration.Round(time.Millisecond))
	fmt.Printf("  Errors:       %d\n", m.TotalErrors)
	if m.TotalProcessed > 0 {
		fmt.Printf("  Throughput:   %.1f req/s\n", float64(m.TotalProcessed)/duration.Seconds())
		fmt.Printf("  Avg latency:  %.1f ms\n", float64(m.ProcessingTimeMs)/float64(m.TotalProcessed))
	}

	fmt.Println("\n  Decisions:")
	fmt.Printf("    Approved:     %d\n", m.Approved)
	fmt.Printf("    NeedsReview:  %d\n", m.NeedsReview)
	fmt.Printf("    Declined:     %d\n", m.Declined)

	labeled := m.Matches + m.Mismatches
	if labeled > 0 {
		fmt.Println("\n  Agreement with expected labels:")
		fmt.Printf("    Matches:      %d\n", m.Matches)
		fmt.Printf("    Mismatches:   %d\n", m.Mismatches)
		fmt.Printf("    Agreement:    %.2f%%\n", 100*float64(m.Matches)/float64(labeled))
	}
	fmt.Println()
}
