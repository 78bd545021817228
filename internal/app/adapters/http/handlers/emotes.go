package handlers

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
	"tirc/internal/app/domain/emote"
)

// Emotes returns the catalog, optionally filtered by a case-insensitive
// ?q= substring, plus the user's recently used codes.
func (h *Handlers) Emotes(c *gin.Context) {
	all := h.catalog.All()

	if q := strings.ToLower(c.Query("q")); q != "" {
		filtered := make([]emote.Emote, 0, len(all))
		for _, e := range all {
			if strings.Contains(strings.ToLower(e.Name), q) {
				filtered = append(filtered, e)
			}
		}
		all = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"loading": h.catalog.Loading(),
		"emotes":  orEmpty(all),
		"recent":  h.prefs.RecentEmotes(),
	})
}

func (h *Handlers) Emote(c *gin.Context) {
	e, ok := h.catalog.Find(c.Param("name"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "emote not found"})
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handlers) ReloadEmotes(c *gin.Context) {
	h.catalog.Reload(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"emotes": len(h.catalog.All())})
}
