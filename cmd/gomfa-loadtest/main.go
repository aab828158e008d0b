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

	goMFA "github.com/MrEthical07/goMFA"
	"github.com/MrEthical07/goMFA/keystore"
	"github.com/alicebob/miniredis/v2"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
)

type loadUser struct {
	id      string
	session string
	secret  string
}

type directory struct {
	users map[string]goMFA.UserRecord
}

func (d *directory) GetUserByID(_ context.Context, userID string) (goMFA.UserRecord, error) {
	user, ok := d.users[userID]
	if !ok {
		return goMFA.UserRecord{}, goMFA.ErrUserNotFound
	}
	return user, nil
}

func main() {
	var (
		users       = flag.Int("users", 20000, "number of users to seed, each with one TOTP key")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "users and concurrency must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	var client *redis.Client
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goMFA.DefaultConfig()
	cfg.RelyingParty.Domain = "loadtest.local"
	cfg.RelyingParty.Title = "goMFA loadtest"
	cfg.Methods = []string{goMFA.MethodTOTP}
	cfg.TOTP.Window = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	keys := keystore.NewMemory()
	dir := &directory{users: make(map[string]goMFA.UserRecord, *users)}

	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	states := make([]loadUser, *users)
	for i := 0; i < *users; i++ {
		userID := fmt.Sprintf("u-%d", i)
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      cfg.RelyingParty.Title,
			AccountName: userID,
			SecretSize:  uint(cfg.TOTP.SecretSize),
			Digits:      otp.Digits(cfg.TOTP.Digits),
			Period:      uint(cfg.TOTP.Period),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "secret generation failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = loadUser{
			id:      userID,
			session: fmt.Sprintf("sid-%d", i),
			secret:  key.Secret(),
		}
		dir.users[userID] = goMFA.UserRecord{UserID: userID, Username: userID, Backend: "load"}
		if _, err := keys.Create(ctx, goMFA.Key{UserID: userID, Method: goMFA.MethodTOTP, Secret: key.Secret()}); err != nil {
			fmt.Fprintf(os.Stderr, "key seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	engine, err := goMFA.New().
		WithConfig(cfg).
		WithRedis(client).
		WithKeyStore(keys).
		WithUserDirectory(dir).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	loginStats := runPhase(states, *concurrency, func(u loadUser) error {
		_, err := engine.CompleteLogin(ctx, u.session, dir.users[u.id], "/done")
		return err
	})

	// Each user authenticates exactly once: the replay guard forbids a second
	// use of the same code inside a period.
	verifyStats := runPhase(states, *concurrency, func(u loadUser) error {
		if _, err := engine.BeginAuthenticate(ctx, u.session, goMFA.MethodTOTP); err != nil {
			return err
		}
		code, err := totp.GenerateCodeCustom(u.secret, time.Now().UTC(), totp.ValidateOpts{
			Period:    uint(cfg.TOTP.Period),
			Digits:    otp.Digits(cfg.TOTP.Digits),
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return err
		}
		_, err = engine.CompleteAuthenticate(ctx, u.session, goMFA.MethodTOTP, code)
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("authenticate", verifyStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("metrics: mfa_required=%d auth_success=%d auth_failure=%d\n",
		snap.Counters[goMFA.MetricLoginMFARequired],
		snap.Counters[goMFA.MetricAuthSuccess],
		snap.Counters[goMFA.MetricAuthFailure],
	)
}

func runPhase(states []loadUser, concurrency int, op func(loadUser) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(states))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				t0 := time.Now()
				err := op(states[i])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
