// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autocall/autoanswer/internal/answer"
	"github.com/autocall/autoanswer/internal/bridge"
	"github.com/autocall/autoanswer/internal/control"
	"github.com/autocall/autoanswer/internal/journal"
	"github.com/autocall/autoanswer/internal/logging"
	"github.com/autocall/autoanswer/internal/metrics"
	"github.com/autocall/autoanswer/internal/pipeline"
	"github.com/autocall/autoanswer/internal/settings"
	"github.com/autocall/autoanswer/pkg/config"
	"github.com/autocall/autoanswer/pkg/core"
	"github.com/autocall/autoanswer/pkg/plugins"
	"github.com/autocall/autoanswer/pkg/plugins/httppost"
	"github.com/autocall/autoanswer/pkg/plugins/jms"
	"github.com/autocall/autoanswer/pkg/plugins/kafka"
	"github.com/autocall/autoanswer/pkg/plugins/mock"
	"github.com/autocall/autoanswer/pkg/plugins/mqtt"
	"github.com/autocall/autoanswer/pkg/plugins/mqtt5"
	"github.com/autocall/autoanswer/pkg/plugins/rabbitmq"
	"github.com/autocall/autoanswer/pkg/plugins/solace"
	"github.com/autocall/autoanswer/pkg/plugins/webhook"
	"github.com/autocall/autoanswer/pkg/plugins/ws"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "/etc/autoanswer/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level)

	if err := run(cfg, configPath, logger); err != nil {
		logger.Error("autoanswer exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("autoanswer stopped")
}

func run(cfg *config.Config, configPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := settings.New()
	applied, err := cfg.Settings.Apply(s)
	if err != nil {
		return err
	}
	m := metrics.New()
	for _, field := range applied {
		m.SettingsUpdated(field, "file")
	}

	store, err := journal.NewStore(cfg.Journal)
	if err != nil {
		return err
	}
	defer store.Close()
	recorder := journal.NewRecorder(0, logger.With("component", "journal"))
	stream := control.NewStream(0, logger.With("component", "stream"))
	decisions := logging.NewDecisionLogger(logger.With("component", "decision"))

	registry := plugins.NewRegistry(logger.With("component", "registry"))
	registerSources(cfg, registry, logger)
	registerControllers(cfg, registry, logger)

	controller, err := registry.Controller(cfg.Engine.Controller)
	if err != nil {
		return err
	}
	if n := registry.ConnectControllers(ctx); !registry.IsControllerHealthy(controller.Name()) {
		logger.Warn("active controller not connected, accepts will fail until it is",
			"controller", controller.Name(), "connected", n)
	}

	opts := cfg.EngineOptions()
	engine := answer.NewEngine(s, controller, opts, logger.With("component", "engine"),
		decisions, m, recorder, stream)

	dispatcher := pipeline.NewDispatcher(engine, cfg.Engine.BufferSize, logger.With("component", "pipeline"))
	dispatcher.OnEvent(func(evt core.CallEvent) {
		m.ObserveEvent(evt)
		decisions.LogEvent(evt)
	})

	watcher := config.NewWatcher(configPath, s, logger.With("component", "watcher"))
	watcher.OnApply(func(field string) { m.SettingsUpdated(field, "file") })

	api := control.New(cfg.Control.Addr, control.Deps{
		Settings: s,
		Engine:   engine,
		Sources:  registry,
		Intake:   dispatcher,
		Journal:  store,
		Stream:   stream,
		Metrics:  m,
	}, logger.With("component", "control"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error { return journal.NewWorker(store, recorder, logger.With("component", "journal")).Run(gctx) })
	g.Go(func() error {
		watcher.Watch(gctx)
		return nil
	})
	g.Go(func() error { return api.Run(gctx) })

	if cfg.Bridge.RedisURL != "" {
		sub, err := bridge.Dial(cfg.Bridge.RedisURL, cfg.Bridge.Channel,
			bridge.New(s, registry.IsEnabled, m, logger.With("component", "bridge")),
			logger.With("component", "bridge"))
		if err != nil {
			logger.Error("bridge unavailable", "error", err)
		} else {
			defer sub.Close()
			g.Go(func() error { return sub.Run(gctx) })
		}
	}

	registry.StartSources(gctx, dispatcher)

	snap := s.Snapshot()
	logger.Info("autoanswer ready",
		"config", configPath,
		"controller", controller.Name(),
		"sources", len(cfg.Sources),
		"allow_list_entries", snap.AllowList.Len(),
		"delay_seconds", snap.DelaySeconds,
		"empty_allow_list", opts.EmptyListPolicy.String(),
		"overlap", opts.Overlap.String(),
	)

	err = g.Wait()

	logger.Info("shutting down autoanswer")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	registry.StopAll(shutdownCtx)
	engine.Close()
	return err
}

func registerSources(cfg *config.Config, reg *plugins.Registry, logger *slog.Logger) {
	for _, src := range cfg.Sources {
		l := logger.With("component", "source", "source", src.Name)
		switch src.Type {
		case "websocket":
			reg.RegisterSource(ws.New(src.Name, src.Port, l))
		case "http_post":
			reg.RegisterSource(httppost.New(src.Name, src.Port, l))
		case "kafka":
			reg.RegisterSource(kafka.New(src.Name, brokers(src.Config["brokers"]),
				src.Config["topic_in"], "", src.Config["group_id"], l))
		case "rabbitmq":
			reg.RegisterSource(rabbitmq.New(src.Name, src.Config["url"], src.Config["queue_in"], "", l))
		case "mqtt5":
			reg.RegisterSource(mqtt5.New(src.Name, src.Config["broker"], src.Config["topic_in"], l))
		case "jms":
			reg.RegisterSource(jms.New(src.Name, src.Config["url"], src.Config["queue_in"], l))
		default:
			logger.Warn("unknown source type", "name", src.Name, "type", src.Type)
		}
	}
}

func registerControllers(cfg *config.Config, reg *plugins.Registry, logger *slog.Logger) {
	for _, ctl := range cfg.Controllers {
		l := logger.With("component", "controller", "controller", ctl.Name)
		switch ctl.Type {
		case "log", "mock":
			reg.RegisterController(mock.New(ctl.Name, ctl.Config, l))
		case "http":
			timeout, _ := time.ParseDuration(ctl.Config["timeout"])
			reg.RegisterController(webhook.New(ctl.Name, ctl.Config["url"], ctl.Config["token"], timeout, l))
		case "kafka":
			reg.RegisterController(kafka.New(ctl.Name, brokers(ctl.Config["brokers"]),
				"", ctl.Config["topic_out"], "", l))
		case "rabbitmq":
			reg.RegisterController(rabbitmq.New(ctl.Name, ctl.Config["url"], "", ctl.Config["queue_out"], l))
		case "mqtt":
			qos, err := strconv.Atoi(ctl.Config["qos"])
			if err != nil {
				qos = 1
			}
			reg.RegisterController(mqtt.New(ctl.Name, ctl.Config["broker"], ctl.Config["topic_out"], byte(qos), l))
		case "solace":
			reg.RegisterController(solace.New(ctl.Name,
				ctl.Config["host"], ctl.Config["vpn"],
				ctl.Config["username"], ctl.Config["password"],
				ctl.Config["topic_out"], l))
		default:
			logger.Warn("unknown controller type", "name", ctl.Name, "type", ctl.Type)
		}
	}
}

func brokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
