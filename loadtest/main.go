package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"olimpiad/client"
	v1 "olimpiad/pkg/api/v1"
	"olimpiad/pkg/constraints"
)

var (
	targetURL   = flag.String("url", "http://localhost:8001", "API base URL")
	records     = flag.Int("records", 200, "Olimpiads to create")
	features    = flag.Int("features", 40, "Features to create")
	deletes     = flag.Int("deletes", 20, "Features to delete while records are being created")
	concurrency = flag.Int("c", 16, "Concurrent writers")
	username    = flag.String("user", "", "Admin username, when auth is enabled")
	password    = flag.String("password", "", "Admin password, when auth is enabled")
)

var (
	recordsCreated  int64
	featuresCreated int64
	featuresDeleted int64
	writeErrors     int64
)

func main() {
	flag.Parse()

	fmt.Printf("🚀 Starting schema race check\n")
	fmt.Printf("   Target: %s\n", *targetURL)
	fmt.Printf("   Records: %d | Features: %d | Deletes: %d | Writers: %d\n", *records, *features, *deletes, *concurrency)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	c := client.NewClient(*targetURL)
	if *username != "" {
		if err := c.Login(ctx, *username, *password); err != nil {
			fmt.Printf("login failed: %v\n", err)
			os.Exit(1)
		}
	}

	// Seed features that will be deleted mid-run.
	doomed := make(chan string, *deletes)
	for i := 0; i < *deletes; i++ {
		f, err := c.CreateFeature(ctx, fmt.Sprintf("doomed-%d", i), "text")
		if err != nil {
			fmt.Printf("seed failed: %v\n", err)
			os.Exit(1)
		}
		doomed <- f.ID
	}
	close(doomed)

	jobs := make(chan func(context.Context) error)
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := job(ctx); err != nil {
					if atomic.AddInt64(&writeErrors, 1) <= 5 {
						fmt.Printf("write error: %v\n", err)
					}
				}
			}
		}()
	}

	start := time.Now()
	featureTypes := []string{constraints.TypeText, constraints.TypeImage, constraints.TypeNumber, "color"}
	pendingDeletes := *deletes
	for i := 0; i < max(*records, *features); i++ {
		if i < *records {
			n := i
			jobs <- func(ctx context.Context) error {
				_, err := c.CreateOlimpiad(ctx, v1.OlimpiadCreate{
					Name:    fmt.Sprintf("race-%d", n),
					Subject: "Load",
					Level:   "Test",
					Status:  constraints.Statuses[n%len(constraints.Statuses)],
				})
				if err == nil {
					atomic.AddInt64(&recordsCreated, 1)
				}
				return err
			}
		}
		if i < *features {
			n := i
			jobs <- func(ctx context.Context) error {
				_, err := c.CreateFeature(ctx, fmt.Sprintf("race-%d", n), featureTypes[n%len(featureTypes)])
				if err == nil {
					atomic.AddInt64(&featuresCreated, 1)
				}
				return err
			}
		}
		if pendingDeletes > 0 && i%2 == 0 {
			pendingDeletes--
			id := <-doomed
			jobs <- func(ctx context.Context) error {
				err := c.DeleteFeature(ctx, id)
				if err == nil {
					atomic.AddInt64(&featuresDeleted, 1)
				}
				return err
			}
		}
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("✅ Writes done in %v | records: %d | features: %d | deleted: %d | errors: %d\n",
		time.Since(start).Round(time.Millisecond),
		atomic.LoadInt64(&recordsCreated), atomic.LoadInt64(&featuresCreated),
		atomic.LoadInt64(&featuresDeleted), atomic.LoadInt64(&writeErrors))

	violations, checked, err := verify(ctx, c)
	if err != nil {
		fmt.Printf("verify failed: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Printf("❌ %d of %d olimpiads violate schema completeness\n", len(violations), checked)
		for _, v := range violations[:min(len(violations), 20)] {
			fmt.Println("   " + v)
		}
		os.Exit(2)
	}
	fmt.Printf("✅ %d olimpiads carry exactly the registered features\n", checked)
}

// verify checks that every olimpiad's dynamic_features keys equal the
// registered feature ids.
func verify(ctx context.Context, c *client.Client) ([]string, int, error) {
	registered, err := c.ListFeatures(ctx)
	if err != nil {
		return nil, 0, err
	}
	want := make(map[string]bool, len(registered))
	for _, f := range registered {
		want[f.ID] = true
	}

	list, err := c.ListOlimpiads(ctx, "", "")
	if err != nil {
		return nil, 0, err
	}

	var violations []string
	for _, o := range list {
		var missing, extra []string
		for id := range want {
			if _, ok := o.DynamicFeatures[id]; !ok {
				missing = append(missing, id)
			}
		}
		for id := range o.DynamicFeatures {
			if !want[id] {
				extra = append(extra, id)
			}
		}
		if len(missing) > 0 || len(extra) > 0 {
			sort.Strings(missing)
			sort.Strings(extra)
			violations = append(violations, fmt.Sprintf("%s missing=%v extra=%v", o.ID, missing, extra))
		}
	}
	return violations, len(list), nil
}
