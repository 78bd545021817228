package handlers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"net/http"
	"tirc/internal/app/infrastructure/config"
)

type settings struct {
	MaxMessages int `json:"maxMessages"`
}

type settingsPatch struct {
	MaxMessages *int `json:"maxMessages"`
}

func (h *Handlers) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, settings{MaxMessages: h.session.MaxMessages()})
}

// UpdateSettings saves the change to the config file before applying it,
// so an invalid value leaves both untouched.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var patch settingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if patch.MaxMessages == nil {
		abort(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	n := *patch.MaxMessages
	if err := h.manager.Update(func(cfg *config.Config) { cfg.Session.MaxMessages = n }); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	h.session.SetMaxMessages(n)

	h.log.Info("Settings updated")
	c.JSON(http.StatusOK, settings{MaxMessages: h.session.MaxMessages()})
}
