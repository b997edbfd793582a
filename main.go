// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"net/http"
	"os"

	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/sirupsen/logrus"

	"github.com/overgrid/relay/cloud"
	"github.com/overgrid/relay/config"
	"github.com/overgrid/relay/telemetry"
	"github.com/overgrid/relay/transport"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ticks, err := telemetry.NewTickRecorder(1200, os.Getenv("TICK_CSV_PATH"))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tick telemetry")
	}
	defer ticks.Close()

	// A STAGE env var opts the process into fleet telemetry; unset, it stays
	// Offline and persists nothing.
	var reporter cloud.Reporter = cloud.OfflineReporter{}
	if stage := os.Getenv("STAGE"); stage != "" {
		sess, err := awssession.NewSession()
		if err != nil {
			log.WithError(err).Warn("failed to create aws session, falling back to offline cloud reporter")
		} else {
			reporter = cloud.NewDynamoReporter(sess, stage)
		}
	}

	hub := NewHub(cfg, log, reporter, ticks)
	go hub.Run()

	server := transport.NewServer(hub.register, hub.unregister, hub.inbound, log)

	log.WithFields(logrus.Fields{"addr": cfg.Addr(), "tick_hz": cfg.TickHz}).Info("relay server starting")
	if err := http.ListenAndServe(cfg.Addr(), server.Router()); err != nil {
		log.WithError(err).Fatal("listen and serve failed")
	}
}
