package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatConnected - есть ли сейчас соединение с чатом.
	ChatConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tirc_chat_connected",
		Help: "Whether the chat socket is connected (1) or not (0)",
	})

	// ReconnectAttempts - сколько раз планировалось переподключение.
	ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tirc_chat_reconnect_attempts_total",
		Help: "Total number of scheduled reconnect attempts",
	})

	// LinesReceived - строки протокола по командам.
	LinesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tirc_irc_lines_total",
			Help: "Total number of IRC lines received, by resulting event kind",
		},
		[]string{"kind"},
	)

	// MessagesPerChannel - сообщения чата по каналам.
	MessagesPerChannel = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tirc_chat_messages_total",
			Help: "Total number of chat messages per channel",
		},
		[]string{"channel"},
	)

	// JoinedChannels - сколько каналов открыто.
	JoinedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tirc_joined_channels",
		Help: "Number of channels the client has joined",
	})

	// EmotesLoaded - размер каталога эмоутов по провайдерам.
	EmotesLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tirc_emotes_loaded",
			Help: "Number of emotes currently loaded per provider",
		},
		[]string{"provider"},
	)

	// EmoteFetchFailures - ошибки загрузки каталогов.
	EmoteFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tirc_emote_fetch_failures_total",
			Help: "Total number of failed emote catalog fetches per provider",
		},
		[]string{"provider"},
	)

	// MessageProcessingTime - время разбора сообщения на сегменты.
	MessageProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tirc_message_processing_seconds",
			Help:    "Time to turn a chat message into segments",
			Buckets: prometheus.ExponentialBuckets(0.00005, 1.5, 25),
		},
	)
)

func Bool(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
