package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduatipico",
		Subsystem: "session",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduatipico",
		Subsystem: "gate",
		Name:      "decisions_total",
		Help:      "Access gate decisions by kind.",
	}, []string{"decision"})

	activeStores = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eduatipico",
		Subsystem: "session",
		Name:      "active_stores",
		Help:      "Session stores currently held in memory.",
	})
)
