package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"duniter-go/core"
	"duniter-go/pkg/config"
)

func RegisterStart(root *cobra.Command) { root.AddCommand(startCmd) }

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start the node: blockchain worker, WS2P service, metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		return runStart(profile)
	},
}

func runStart(profile string) error {
	cfg, err := config.Load(profile)
	if err != nil {
		return err
	}

	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(lvl)
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			logrus.SetOutput(f)
			defer f.Close()
		}
	}

	currencyDir := filepath.Join(profile, cfg.Currency)
	if err := os.MkdirAll(filepath.Join(currencyDir, "blockchain"), 0o755); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if err := core.InitStore(filepath.Join(currencyDir, "blockchain", "wal.log")); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	core.NewBlockchainStore(core.CurrentStore())
	rules := core.DefaultRuleSet()
	if err := core.InitChainState(core.CurrentStore(), rules, cfg.Currency); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if err := core.InitAuditTrail(filepath.Join(currencyDir, "audit.log")); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	audit := core.CurrentAuditTrail()
	defer audit.Close()
	audit.Log("node.start", map[string]string{"currency": cfg.Currency})

	worker := core.NewWorker(core.CurrentChainState(), rules, cfg.Storage.ForkWindowSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	node, err := core.NewNode(cfg.Network)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer node.Close()

	nodePub, nodePriv, err := core.GenerateKeypair()
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	var selfPub core.PubKey
	copy(selfPub[:], nodePub)

	svc := core.NewService(node, worker, 1, nodePriv, selfPub, 0, 256)
	svc.Audit = audit
	health := core.NewHealthLogger(core.CurrentChainState(), svc)
	go health.RunMetricsCollector(ctx, 15*time.Second, worker.ForkTreeSize)

	logrus.Infof("duniter: node started for currency %q in %s", cfg.Currency, currencyDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logrus.Info("duniter: shutdown signal received")
	case <-ctx.Done():
	}

	audit.Log("node.shutdown", nil)
	svc.Shutdown()
	worker.Stop()
	return nil
}
