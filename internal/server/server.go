package server

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Duttonn/BlackJackAdvisor/internal/orchestrator"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
)

// Server wires the orchestrator.Manager to gin routes and a gorilla
// websocket streaming feed. It holds no game state of its own.
type Server struct {
	manager *orchestrator.Manager
	hub     *eventHub
}

// New constructs a Server sharing table across every session the
// manager creates.
func New(table *strategy.Table) *Server {
	return &Server{
		manager: orchestrator.NewManager(table),
		hub:     newEventHub(),
	}
}

// Manager exposes the underlying orchestrator, letting main wire
// telemetry sinks in before the router starts accepting traffic.
func (s *Server) Manager() *orchestrator.Manager { return s.manager }

// Router builds the gin engine exposing the §6 operation table as
// REST endpoints, plus a streaming WebSocket feed per session.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	sessions := r.Group("/sessions")
	sessions.POST("", s.handleStartSession)
	sessions.DELETE("/:id", s.handleEndSession)
	sessions.GET("/:id", s.handleSessionStatus)
	sessions.POST("/:id/shuffle", s.handleShuffle)
	sessions.POST("/:id/deal", s.handleDeal)
	sessions.POST("/:id/action", s.handleAction)
	sessions.POST("/:id/observe", s.handleObserve)
	sessions.POST("/:id/query_decision", s.handleQueryDecision)
	sessions.GET("/:id/query_bet", s.handleQueryBet)
	sessions.GET("/:id/stream", s.handleStream)

	return r
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadInput), Message: err.Error()})
		return
	}

	var rules *strategy.GameRules
	if req.Rules != nil {
		r := req.Rules.toRules()
		rules = &r
	}

	var seed []byte
	if req.Seed != "" {
		decoded, err := hex.DecodeString(req.Seed)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadInput), Message: "seed must be hex-encoded"})
			return
		}
		seed = decoded
	}

	view, engErr := s.manager.StartSession(orchestrator.StartSessionRequest{
		Mode:     orchestrator.Mode(req.Mode),
		Bankroll: req.Bankroll,
		Rules:    rules,
		Seed:     seed,
	})
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	c.JSON(http.StatusCreated, viewDTO(view))
}

func (s *Server) handleEndSession(c *gin.Context) {
	id := c.Param("id")
	if engErr := s.manager.EndSession(id); engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	s.hub.close(id)
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) handleSessionStatus(c *gin.Context) {
	view, engErr := s.manager.SessionStatus(c.Param("id"))
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	c.JSON(http.StatusOK, viewDTO(view))
}

func (s *Server) handleShuffle(c *gin.Context) {
	snap, engErr := s.manager.Shuffle(c.Param("id"))
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count_snapshot": snapshotDTO(snap)})
}

func (s *Server) handleDeal(c *gin.Context) {
	id := c.Param("id")
	res, engErr := s.manager.Deal(id)
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	dto := dealDTO(res)
	c.JSON(http.StatusOK, dto)
	s.hub.broadcast(id, "deal", dto)
}

type actionRequestDTO struct {
	Action string `json:"action" binding:"required"`
}

func (s *Server) handleAction(c *gin.Context) {
	id := c.Param("id")
	var req actionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadInput), Message: err.Error()})
		return
	}
	act, err := parseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadInput), Message: err.Error()})
		return
	}

	res, engErr := s.manager.Action(id, act)
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	dto := actionDTO(res)
	c.JSON(http.StatusOK, dto)
	s.hub.broadcast(id, "action", dto)
}

type observeRequestDTO struct {
	Cards []string `json:"cards" binding:"required"`
}

func (s *Server) handleObserve(c *gin.Context) {
	id := c.Param("id")
	var req observeRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadInput), Message: err.Error()})
		return
	}
	parsed, err := parseCards(req.Cards)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadCard), Message: err.Error()})
		return
	}

	res, engErr := s.manager.Observe(id, parsed)
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	c.JSON(http.StatusOK, observeDTO(res))
}

type queryDecisionRequestDTO struct {
	PlayerCards []string `json:"player_cards" binding:"required"`
	DealerUp    string   `json:"dealer_up" binding:"required"`
}

func (s *Server) handleQueryDecision(c *gin.Context) {
	id := c.Param("id")
	var req queryDecisionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadInput), Message: err.Error()})
		return
	}
	playerCards, err := parseCards(req.PlayerCards)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadCard), Message: err.Error()})
		return
	}
	dealerUp, err := parseRank(req.DealerUp)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponseDTO{Code: string(orchestrator.BadCard), Message: err.Error()})
		return
	}

	res, engErr := s.manager.QueryDecision(id, playerCards, dealerUp)
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	c.JSON(http.StatusOK, queryDecisionDTO(res))
}

func (s *Server) handleQueryBet(c *gin.Context) {
	bet, engErr := s.manager.QueryBet(c.Param("id"))
	if engErr != nil {
		c.JSON(httpStatusFor(engErr.Code), errorDTO(engErr))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommended_bet": bet})
}
