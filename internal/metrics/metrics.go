package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spyfall",
		Name:      "sessions_started_total",
		Help:      "Number of game sessions created",
	})
	QuestionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spyfall",
		Name:      "questions_generated_total",
		Help:      "Questions produced by the content provider",
	})
	AnswersGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spyfall",
		Name:      "answers_generated_total",
		Help:      "Answers produced by the content provider",
	})
	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spyfall",
		Name:      "generation_failures_total",
		Help:      "Content provider calls that failed and were surfaced as retryable",
	})
	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spyfall",
		Name:      "games_finished_total",
		Help:      "Finished games by winning faction",
	}, []string{"winner"})
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spyfall",
		Name:      "active_connections",
		Help:      "Connected sockets",
	})
)
