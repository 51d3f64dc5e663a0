// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/alitto/pond"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rxdemo/rxusers/bind"
	"github.com/rxdemo/rxusers/config"
	"github.com/rxdemo/rxusers/github"
	"github.com/rxdemo/rxusers/logger"
	"github.com/rxdemo/rxusers/stream"
	"github.com/rxdemo/rxusers/viewmodel"
)

type options struct {
	configPath string
	limit      int
	avatars    bool
	flags      config.Config
}

func newRootCommand() *cobra.Command {
	opts := options{flags: config.Default()}

	cmd := &cobra.Command{
		Use:          "githubusers",
		Short:        "List GitHub users",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			return run(ctx, cfg, opts, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	fs.StringVar(&opts.flags.APIURL, "api-url", opts.flags.APIURL, "base URL of the GitHub API")
	fs.DurationVar(&opts.flags.Timeout, "timeout", opts.flags.Timeout, "overall timeout")
	fs.StringVar(&opts.flags.LogLevel, "log-level", opts.flags.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&opts.limit, "limit", 0, "show at most this many users (0 shows all)")
	fs.BoolVar(&opts.avatars, "avatars", false, "download the avatars and show their sizes")
	return cmd
}

// config loads the configuration file, if any, and applies the flags that
// were set explicitly on top of it.
func (o options) config(cmd *cobra.Command) (config.Config, error) {
	cfg := o.flags
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		fs := cmd.Flags()
		if fs.Changed("api-url") {
			loaded.APIURL = o.flags.APIURL
		}
		if fs.Changed("timeout") {
			loaded.Timeout = o.flags.Timeout
		}
		if fs.Changed("log-level") {
			loaded.LogLevel = o.flags.LogLevel
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, opts options, out io.Writer) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.DefaultLogLevel.SetLevel(level)
	log := logger.New(logger.WithName("githubusers"))

	pool := pond.New(cfg.Workers, cfg.Workers*16)
	defer pool.StopAndWait()

	// All view state is updated from this one goroutine.
	ui := stream.NewSerialScheduler()
	defer ui.Close()

	reg := prometheus.NewRegistry()
	clientOpts := []github.Option{
		github.WithBaseURL(cfg.APIURL),
		github.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		github.WithToken(cfg.Token),
		github.WithLogger(log.Named("github")),
		github.WithRegisterer(reg),
		github.WithScheduler(stream.NewPoolScheduler(pool)),
	}
	if cfg.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, github.WithRateLimit(cfg.RequestsPerSecond, 1))
	}
	client := github.NewClient(clientOpts...)

	avatars, err := viewmodel.NewAvatarCache(client, cfg.AvatarCacheSize)
	if err != nil {
		return err
	}
	vm := viewmodel.NewUsersViewModel(client, avatars,
		viewmodel.WithLogger(log.Named("viewmodel")),
		viewmodel.WithUIScheduler(ui))
	defer vm.Close()

	// Rows are created on the UI goroutine and their values arrive on it
	// later, so waiting for the next change of a property cannot miss it.
	var settled sync.WaitGroup
	waitChange := func(changes stream.Observable[string]) {
		settled.Add(1)
		stream.SubscribeFuncs(stream.Take(1, stream.Skip(1, changes)), nil, nil, settled.Done)
	}
	var cellOpts []viewmodel.CellOption
	if !opts.avatars {
		cellOpts = append(cellOpts, viewmodel.WithoutAvatar())
	}
	list := bind.NewList[*viewmodel.UserCellViewModel, *viewmodel.UserCell](
		func(_ int, cellVM *viewmodel.UserCellViewModel) *viewmodel.UserCell {
			cell := viewmodel.NewUserCell(cellVM, cellOpts...)
			waitChange(cell.Name.Changes())
			waitChange(cell.Profile.Changes())
			if opts.avatars {
				waitChange(stream.Map(cell.Avatar.Changes(), func([]byte) string { return "" }))
			}
			return cell
		})
	defer list.Bind(stream.Skip(1, vm.Cells())).Dispose()

	loaded := make(chan error, 1)
	outcome := stream.Merge(
		stream.Map(list.Reloaded(), func([]*viewmodel.UserCell) error { return nil }),
		vm.Errors(),
	)
	defer stream.SubscribeFuncs(stream.Take(1, outcome), func(err error) { loaded <- err }, nil, nil).Dispose()

	vm.Load()

	select {
	case err := <-loaded:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return fmt.Errorf("loading users: %w", ctx.Err())
	}

	done := make(chan struct{})
	go func() {
		settled.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("loading user details: %w", ctx.Err())
	}

	logRequests(log, reg)
	renderUsers(out, list.Rows(), opts)
	return nil
}

func renderUsers(out io.Writer, cells []*viewmodel.UserCell, opts options) {
	if opts.limit > 0 && len(cells) > opts.limit {
		cells = cells[:opts.limit]
	}
	w := table.NewWriter()
	w.SetOutputMirror(out)
	header := table.Row{"#", "Login", "Profile"}
	if opts.avatars {
		header = append(header, "Avatar")
	}
	w.AppendHeader(header)
	for i, cell := range cells {
		row := table.Row{i + 1, cell.Name.Get(), cell.Profile.Get()}
		if opts.avatars {
			row = append(row, avatarSize(cell.Avatar.Get()))
		}
		w.AppendRow(row)
	}
	w.Render()
}

func avatarSize(img []byte) string {
	if len(img) == 0 {
		return "-"
	}
	return strconv.Itoa(len(img)) + " B"
}

func logRequests(log *zap.SugaredLogger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		log.Warnw("gathering metrics failed", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []any{"metric", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				fields = append(fields, lp.GetName(), lp.GetValue())
			}
			log.Debugw("requests", fields...)
		}
	}
}
