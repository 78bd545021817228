package handlers

import (
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
)

// Channels lists the channels the server confirmed and the ones the
// client will join on (re)connect.
func (h *Handlers) Channels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"joined":    orEmpty(h.session.Channels()),
		"requested": orEmpty(h.chat.Channels()),
	})
}

func (h *Handlers) JoinChannel(c *gin.Context) {
	ch, ok := channelParam(c, c.Param("name"))
	if !ok {
		return
	}

	if err := h.session.Join(ch); err != nil {
		h.log.Warn("Join failed", slog.String("channel", ch.String()), slog.String("error", err.Error()))
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"channel": ch})
}

func (h *Handlers) PartChannel(c *gin.Context) {
	ch, ok := channelParam(c, c.Param("name"))
	if !ok {
		return
	}

	if err := h.session.Part(ch); err != nil {
		h.log.Warn("Part failed", slog.String("channel", ch.String()), slog.String("error", err.Error()))
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": ch})
}
