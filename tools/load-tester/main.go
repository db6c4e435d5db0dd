package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// queries cycles through the dashboard's common filter combinations.
var queries = []url.Values{
	{},
	{"origin": {"Amazon.Alexa"}},
	{"origin": {"Google.Home"}},
	{"level": {"ERROR"}},
	{"exception": {"true"}},
	{"undefined_user_only": {"true"}},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Dashboard API base URL")
	source := flag.String("source", "happy-xisting", "Source to query")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 50, "Requests per second limit")
	flag.Parse()

	target := *baseURL + "/v1/sources/" + url.PathEscape(*source) + "/conversations"
	log.Printf("Starting load test on %s", target)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var (
		wg                       sync.WaitGroup
		successCount, errorCount atomic.Int64
		mu                       sync.Mutex
		latencies                []time.Duration
	)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 10)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 10 * time.Second,
			}

			for n := workerID; ; n++ {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target+"?"+queries[n%len(queries)].Encode(), nil)
				if err != nil {
					continue
				}
				req.Header.Set("X-Request-ID", uuid.NewString())

				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					errorCount.Add(1)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				elapsed := time.Since(start)

				if resp.StatusCode == http.StatusOK {
					successCount.Add(1)
					mu.Lock()
					latencies = append(latencies, elapsed)
					mu.Unlock()
				} else {
					errorCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Successful (200 OK): %d", successCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		log.Printf("Latency p50: %s, p99: %s", latencies[len(latencies)/2], latencies[len(latencies)*99/100])
	}
}
