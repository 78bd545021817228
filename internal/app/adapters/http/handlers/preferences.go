package handlers

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"tirc/internal/app/infrastructure/storage"
)

// preferencesPatch updates only the fields that are present.
type preferencesPatch struct {
	SidebarCollapsed *bool          `json:"sidebarCollapsed"`
	Theme            *storage.Theme `json:"theme"`
	RecentEmote      *string        `json:"recentEmote"`
}

func (h *Handlers) Preferences(c *gin.Context) {
	c.JSON(http.StatusOK, h.prefs.Snapshot())
}

func (h *Handlers) UpdatePreferences(c *gin.Context) {
	var patch preferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if patch.Theme != nil {
		if err := h.prefs.SetTheme(*patch.Theme); err != nil {
			abort(c, statusFor(err), err)
			return
		}
	}
	if patch.SidebarCollapsed != nil {
		if err := h.prefs.SetSidebarCollapsed(*patch.SidebarCollapsed); err != nil {
			abort(c, statusFor(err), err)
			return
		}
	}
	if patch.RecentEmote != nil {
		if err := h.prefs.PushRecentEmote(*patch.RecentEmote); err != nil {
			abort(c, statusFor(err), err)
			return
		}
	}

	c.JSON(http.StatusOK, h.prefs.Snapshot())
}
