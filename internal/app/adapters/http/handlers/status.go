package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"net/http"
	"runtime"
	"time"
	"tirc/internal/app/domain/irc"
)

type statusResponse struct {
	Connected     bool           `json:"connected"`
	Nick          string         `json:"nick"`
	Channels      []irc.Channel  `json:"channels"`
	Messages      map[string]int `json:"messages"`
	EmotesLoaded  int            `json:"emotes_loaded"`
	EmotesLoading bool           `json:"emotes_loading"`
	Uptime        string         `json:"uptime"`
	CPUPercent    float64        `json:"cpu_percent"`
	MemoryMB      uint64         `json:"memory_mb"`
}

func (h *Handlers) Status(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	percent, _ := cpu.Percent(0, false)
	if len(percent) == 0 {
		percent = append(percent, 0)
	}

	c.JSON(http.StatusOK, statusResponse{
		Connected:     h.session.Connected(),
		Nick:          h.session.Nick(),
		Channels:      orEmpty(h.session.Channels()),
		Messages:      h.session.MessageCounts(),
		EmotesLoaded:  len(h.catalog.All()),
		EmotesLoading: h.catalog.Loading(),
		Uptime:        time.Since(h.started).Truncate(time.Second).String(),
		CPUPercent:    percent[0],
		MemoryMB:      m.Sys / 1024 / 1024,
	})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
