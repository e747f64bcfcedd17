package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Storage   string    `json:"storage"`
	Connected bool      `json:"connected"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	const pingTimeout = 2 * time.Second
	ctx, cancel := context.WithTimeout(c, pingTimeout)
	defer cancel()

	connected := true
	err := h.storage.Ping(ctx)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("driver", h.storage.Driver()).
			Msg("storage ping failed")
		connected = false
	}

	c.JSON(http.StatusOK, healthResponse{
		Success:   true,
		Message:   "Server is working",
		Storage:   h.storage.Driver(),
		Connected: connected,
		Timestamp: time.Now().UTC(),
	})
}
