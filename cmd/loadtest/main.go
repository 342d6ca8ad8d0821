package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcsvc "github.com/vladislavdragonenkov/furnicart/internal/service/grpc"
)

type loadMode string

const (
	modeBrowse   loadMode = "browse"
	modeEdit     loadMode = "edit"
	modeCheckout loadMode = "checkout"
)

type config struct {
	addr        string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	items       int
	sessionTag  string
	outputPath  string
}

func parseConfig(fs *flag.FlagSet, args []string) (config, error) {
	var (
		cfg      config
		modeRaw  string
		duration string
		timeout  string
	)

	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios in count mode; with -duration only used when set explicitly")
	fs.StringVar(&duration, "duration", "0s", "optional time-based run duration (e.g. 5m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.IntVar(&cfg.connections, "connections", 10, "number of gRPC client connections")
	fs.StringVar(&timeout, "timeout", "5s", "per-RPC timeout")
	fs.StringVar(&modeRaw, "mode", string(modeBrowse), "scenario: browse | edit | checkout")
	fs.IntVar(&cfg.items, "items", 3, "products added per scenario")
	fs.StringVar(&cfg.sessionTag, "session-tag", "load", "session id prefix")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	var err error
	if cfg.timeout, err = time.ParseDuration(strings.TrimSpace(timeout)); err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	if cfg.duration, err = time.ParseDuration(strings.TrimSpace(duration)); err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	if cfg.mode, err = parseMode(modeRaw); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	switch {
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.items <= 0:
		return cfg, errors.New("items must be > 0")
	case strings.TrimSpace(cfg.sessionTag) == "":
		return cfg, errors.New("session-tag is required")
	}
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case modeBrowse, modeEdit, modeCheckout:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

// dispatchJobs раздаёт номера сценариев: либо total штук, либо до истечения duration.
func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()
	for i := 0; !cfg.totalSet || i < cfg.total; i++ {
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

// run прогоняет сценарии на переданных клиентах и возвращает отчёт.
func run(cfg config, clients []cartClient, runID string) report {
	col := newCollector()
	jobs := make(chan int, cfg.concurrency*2)

	var wg sync.WaitGroup
	startedAt := time.Now()
	for worker := 0; worker < cfg.concurrency; worker++ {
		wg.Add(1)
		go func(client cartClient) {
			defer wg.Done()
			sc := scenario{client: client, cfg: cfg, runID: runID, col: col}
			for id := range jobs {
				_ = sc.run(id)
			}
		}(clients[worker%len(clients)])
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	return col.buildReport(startedAt, time.Since(startedAt))
}

func main() {
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitf("invalid config: %v", err)
	}

	clients := make([]cartClient, 0, cfg.connections)
	conns := make([]io.Closer, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			exitf("failed to create grpc client connection: %v", dialErr)
		}
		conns = append(conns, conn)
		clients = append(clients, grpcsvc.NewClient(conn))
	}
	defer func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}()

	runID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), os.Getpid())
	result := run(cfg, clients, runID)

	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			exitf("failed to write report: %v", err)
		}
	}
	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

func exitf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
