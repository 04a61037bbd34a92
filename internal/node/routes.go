package node

import (
	"net/http"
	"time"

	"github.com/danmuck/edgewire/internal/auth"
	"github.com/danmuck/edgewire/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type broadcastRequest struct {
	Body string `json:"body"`
}

// HTTPRouter builds the admin API for n. A non-nil guard protects the
// mutating routes.
func (n *Node) HTTPRouter(corsOrigins []string, guard auth.Validator) *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(n.id, log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", n.handleHealth)
	r.GET("/peers", n.handlePeers)
	r.POST("/broadcast", auth.Require(guard), n.handleBroadcast)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (n *Node) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"id":          n.id,
		"addr":        n.Addr().String(),
		"running":     n.Running(),
		"peers":       len(n.peers),
		"subscribers": n.Subscribers(),
		"received":    n.Received(),
		"uptime":      time.Since(n.started).String(),
	})
}

func (n *Node) handlePeers(c *gin.Context) {
	peers := make([]string, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p.String())
	}
	c.JSON(http.StatusOK, gin.H{"peers": peers})
}

func (n *Node) handleBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg := Message{Kind: KindData, Body: []byte(req.Body)}
	if err := n.Broadcast(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent", "peers": len(n.peers)})
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
