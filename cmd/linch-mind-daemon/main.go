/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Command linch-mind-daemon is the CLI entrypoint: serve runs the IPC
// fabric in the foreground, health probes a running instance over its own
// socket, version prints the build identity. The persistent --config flag
// names the file the config package loads; no flag is bound into the
// config package's viper instance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linch-mind/daemon/config"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/ipcserver"
	"github.com/linch-mind/daemon/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var foreground bool

	root := &cobra.Command{
		Use:     version.ServiceName,
		Short:   "Local IPC fabric daemon",
		Long:    "linch-mind-daemon serves the local-only IPC fabric that desktop and CLI clients speak to over a Unix domain socket or Windows named pipe.",
		Version: version.Get().String(),
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to daemon.yaml (default: search the platform config directory)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, foreground)
		},
	}
	serve.Flags().BoolVar(&foreground, "foreground", true, "log to stderr with human-readable text instead of JSON")
	root.AddCommand(serve)

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check whether a daemon is reachable on its configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(configPath)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build and protocol version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.Get().String())
			return nil
		},
	})

	return root
}

func runServe(configPath string, foreground bool) error {
	cfg := config.New(ipclog.New(ipclog.PanicLevel), configPath)
	if err := cfg.Start(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer cfg.Stop()

	opts := cfg.Values()
	lvl := ipclog.ParseLevel(opts.LogLevel)
	var log ipclog.Logger
	if foreground {
		log = ipclog.NewText(lvl)
	} else {
		log = ipclog.New(lvl)
	}

	serverOpts := opts.ServerOptions()
	srv := ipcserver.New(serverOpts, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info("linch-mind-daemon started", ipclog.Fields{"release": version.Get().Release})

	cfg.RegisterFuncReloadAfter(func() error {
		reloaded := cfg.Values().ServerOptions()
		srv.Security().UpdatePolicies(reloaded.RateLimit, reloaded.Firewall)
		log.Info("security policies reloaded", nil)
		return nil
	})

	<-ctx.Done()
	log.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverOpts.ShutdownGrace+2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runHealth(configPath string) error {
	cfg := config.New(ipclog.New(ipclog.PanicLevel), configPath)
	if err := cfg.Start(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer cfg.Stop()

	client, err := newHealthClient(cfg.Values())
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.Health(context.Background())
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	fmt.Printf("ok: %s\n", info)
	return nil
}
