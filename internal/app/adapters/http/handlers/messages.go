package handlers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"net/http"
	"strconv"
	"tirc/internal/app/adapters/session"
)

type sendRequest struct {
	Channel string `json:"channel" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

// Messages serves ?channel= (required), narrowed by ?user= or ?q=,
// optionally only the last ?limit= entries.
func (h *Handlers) Messages(c *gin.Context) {
	raw := c.Query("channel")
	if raw == "" {
		abort(c, http.StatusBadRequest, errors.New("channel is required"))
		return
	}
	ch, ok := channelParam(c, raw)
	if !ok {
		return
	}

	var msgs []session.Message
	switch {
	case c.Query("user") != "":
		msgs = h.session.UserMessages(ch, c.Query("user"))
	case c.Query("q") != "":
		msgs = h.session.Search(ch, c.Query("q"))
	default:
		msgs = h.session.Messages(ch)
	}

	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		if n < len(msgs) {
			msgs = msgs[len(msgs)-n:]
		}
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "messages": orEmpty(msgs)})
}

func (h *Handlers) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	ch, ok := channelParam(c, req.Channel)
	if !ok {
		return
	}

	msg, err := h.session.Send(ch, req.Text)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
