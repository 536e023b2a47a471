// Command scquery runs a SecurityCenter analysis query and writes the
// results as CSV.
//
//	scquery -config config.yaml -tool sumip -filter 'ip:=:10.10.0.0/16' -output hosts.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	securitycenter "github.com/tphakala/go-securitycenter"
	"github.com/tphakala/go-securitycenter/internal/cli"
)

// filterList collects repeated -filter flags.
type filterList []securitycenter.Filter

func (f *filterList) String() string {
	return fmt.Sprintf("%d filter(s)", len(*f))
}

func (f *filterList) Set(s string) error {
	filter, err := cli.ParseFilter(s)
	if err != nil {
		return err
	}
	*f = append(*f, filter)
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML configuration")
		tool       = flag.String("tool", "", "analysis tool, e.g. sumip or vulndetails")
		queryType  = flag.String("type", "vuln", "query type: vuln, event, mobile or log")
		sourceType = flag.String("source", "cumulative", "source type, e.g. cumulative or patched")
		pageSize   = flag.Int("page-size", 1000, "records per page")
		page       = flag.Int("page", -1, "fetch only this zero-based page instead of everything")
		output     = flag.String("output", "results.csv", "output CSV path")
		filters    filterList
	)
	flag.Var(&filters, "filter", "analysis filter as field:operator:value (repeatable)")
	flag.Parse()

	if *tool == "" {
		fmt.Fprintln(os.Stderr, "scquery: -tool is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, generated, err := cli.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scquery: %v\n", err)
		os.Exit(1)
	}
	if generated {
		fmt.Printf("wrote default configuration to %s; fill in host and credentials, then rerun\n", *configPath)
		os.Exit(0)
	}

	cleanup, err := cli.SetupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scquery: logging setup: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *tool, filters, *queryType, *sourceType, *pageSize, *page, *output); err != nil {
		slog.Error("query failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *cli.Config, tool string, filters []securitycenter.Filter,
	queryType, sourceType string, pageSize, page int, output string) error {

	opts := []securitycenter.ClientOption{
		securitycenter.WithPort(cfg.Port),
		securitycenter.WithScheme(cfg.Scheme),
		securitycenter.WithRetries(cfg.Retries),
	}
	if cfg.InsecureTLS {
		opts = append(opts, securitycenter.WithInsecureTLS())
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, securitycenter.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}

	sc, err := securitycenter.NewClient(ctx, cfg.Host, opts...)
	if err != nil {
		return err
	}

	info := sc.ServerInfo()
	slog.Info("connected", "host", cfg.Host, "version", info.Version, "license", info.LicenseStatus)

	if err := sc.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := sc.Logout(context.Background()); err != nil {
			slog.Warn("logout failed", "error", err)
		}
	}()

	queryOpts := []securitycenter.QueryOption{
		securitycenter.WithQueryType(queryType),
		securitycenter.WithSourceType(sourceType),
		securitycenter.WithPageSize(pageSize),
		securitycenter.WithQueryHeader("X-Request-ID", uuid.NewString()),
	}
	if page >= 0 {
		queryOpts = append(queryOpts, securitycenter.WithPage(page))
	}

	start := time.Now()
	records, err := sc.Analysis.Query(ctx, tool, filters, queryOpts...)
	if err != nil {
		return err
	}
	slog.Info("query complete", "tool", tool, "records", len(records), "elapsed", time.Since(start))

	if err := cli.ExportCSV(output, records); err != nil {
		return err
	}
	slog.Info("wrote results", "path", output)

	return nil
}
