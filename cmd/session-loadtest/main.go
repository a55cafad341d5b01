// Command session-loadtest measures session store throughput against Redis
// or an embedded miniredis.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type principalState struct {
	id     string
	token  string
	digest string
	mu     sync.Mutex
}

func main() {
	var (
		principals  = flag.Int("principals", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (get + rotate)")
		rounds      = flag.Int("race-rounds", 200, "rounds of the single-principal race phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gs", "session key prefix")
	)
	flag.Parse()

	if *principals <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "principals, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	store := session.NewRedisStore(client, *prefix, 24*time.Hour)

	states := make([]principalState, *principals)
	fmt.Printf("seeding %d sessions...\n", *principals)
	startSeed := time.Now()
	for i := range states {
		token := tokenFor(i, 0)
		states[i] = principalState{id: fmt.Sprintf("p-%d", i), token: token, digest: session.Digest(token)}
		if err := store.Set(ctx, states[i].id, states[i].digest); err != nil {
			fmt.Fprintf(os.Stderr, "set failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	getStats := runGetPhase(ctx, store, states, *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, store, states, *ops, *concurrency)
	raceStats, violations := runRacePhase(ctx, store, *rounds, *concurrency)

	fmt.Println("---- results ----")
	printStats("get", getStats)
	printStats("rotate", rotateStats)
	printStats("race", raceStats)
	if violations > 0 {
		fmt.Printf("race: %d rounds did not have exactly one winner\n", violations)
		os.Exit(1)
	}
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// run spreads ops calls of fn over concurrency workers and records latencies.
func run(ops, concurrency int, fn func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func runGetPhase(ctx context.Context, store *session.RedisStore, states []principalState, ops, concurrency int) phaseStats {
	return run(ops, concurrency, func(r *rand.Rand, _ int) error {
		_, ok, err := store.Get(ctx, states[r.Intn(len(states))].id)
		if err == nil && !ok {
			return errMissing
		}
		return err
	})
}

func runRotatePhase(ctx context.Context, store *session.RedisStore, states []principalState, ops, concurrency int) phaseStats {
	return run(ops, concurrency, func(r *rand.Rand, i int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		next := session.Digest(tokenFor(i, 1))
		swapped, err := store.CompareAndSwap(ctx, state.id, state.digest, next)
		if err != nil {
			return err
		}
		if !swapped {
			return errLostSwap
		}
		state.digest = next
		return nil
	})
}

// runRacePhase has every worker rotate the same principal from the same
// digest. Each round must produce exactly one winner.
func runRacePhase(ctx context.Context, store *session.RedisStore, rounds, concurrency int) (phaseStats, int) {
	const id = "race"
	var (
		latencies  = make([]time.Duration, 0, rounds*concurrency)
		failures   int64
		violations int
		mu         sync.Mutex
	)

	current := session.Digest(tokenFor(-1, 0))
	start := time.Now()
	for round := 0; round < rounds; round++ {
		if err := store.Set(ctx, id, current); err != nil {
			failures++
			continue
		}

		var (
			wg      sync.WaitGroup
			winners int64
		)
		for w := 0; w < concurrency; w++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				t0 := time.Now()
				swapped, err := store.CompareAndSwap(ctx, id, current, session.Digest(tokenFor(round, worker+2)))
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				if swapped {
					atomic.AddInt64(&winners, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}(w)
		}
		wg.Wait()
		if winners != 1 {
			violations++
		}
	}
	return computeStats(time.Since(start), latencies, failures), violations
}

func tokenFor(i, generation int) string {
	return fmt.Sprintf("token-%d-%d-%d", i, generation, rand.Int63())
}
