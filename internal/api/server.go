package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tinylm/internal/logger"
	"github.com/samcharles93/tinylm/internal/model"
	"github.com/samcharles93/tinylm/internal/tensor"
)

// Model is the subset of *model.LanguageModel the server needs.
type Model interface {
	Config() model.Config
	ParameterCounts() model.ParameterCounts
	Forward(ids []int) (tensor.Mat, error)
	Trace(ids []int) (*model.Trace, error)
}

type Server struct {
	model Model
	store *ForwardStore
	log   logger.Logger
	clock func() time.Time
}

func NewServer(m Model, store *ForwardStore, log logger.Logger) *Server {
	if store == nil {
		store = NewForwardStore(DefaultStoreCapacity)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		model: m,
		store: store,
		log:   log.With("component", "api"),
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModel)
	e.POST("/v1/forward", s.handleForward)
	e.GET("/v1/forward/:id", s.handleGetForward)
	e.DELETE("/v1/forward/:id", s.handleDeleteForward)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModel(c *echo.Context) error {
	cfg := s.model.Config()
	return writeJSON(c, http.StatusOK, ModelResponse{
		Object:     "model",
		Config:     cfg,
		HeadDim:    cfg.HeadDim(),
		Parameters: s.model.ParameterCounts(),
	})
}

func (s *Server) handleForward(c *echo.Context) error {
	req, err := decodeJSON[ForwardRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err)
	}

	start := s.clock()
	var (
		logits tensor.Mat
		attn   [][]tensor.Mat
	)
	if req.Attention {
		tr, err := s.model.Trace(req.Tokens)
		if err != nil {
			return s.forwardFailed(c, req, err)
		}
		logits, attn = tr.Logits, tr.Attention
	} else {
		logits, err = s.model.Forward(req.Tokens)
		if err != nil {
			return s.forwardFailed(c, req, err)
		}
	}
	elapsed := s.clock().Sub(start)

	resp := ForwardResponse{
		ID:          newForwardID(),
		Object:      "forward",
		CreatedAt:   start.Unix(),
		Tokens:      req.Tokens,
		Shape:       [2]int{logits.R, logits.C},
		Predictions: predictions(&logits),
		DurationMS:  float64(elapsed.Microseconds()) / 1000,
	}
	if req.IncludeLogits {
		resp.Logits = matRows(&logits)
	}
	if req.Attention {
		resp.Attention = make([][][][]float32, len(attn))
		for b, heads := range attn {
			resp.Attention[b] = make([][][]float32, len(heads))
			for h := range heads {
				resp.Attention[b][h] = matRows(&heads[h])
			}
		}
	}
	s.store.Put(resp)

	s.log.Debug("forward", "id", resp.ID, "tokens", len(req.Tokens), "duration", elapsed)
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) forwardFailed(c *echo.Context, req ForwardRequest, err error) error {
	classified := classifyModelError(err)
	if !errors.Is(classified, ErrInvalidRequest) {
		s.log.Error("forward failed", "tokens", len(req.Tokens), "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	s.log.Debug("forward rejected", "tokens", len(req.Tokens), "error", err)
	return writeBadRequest(c, classified)
}

func (s *Server) handleGetForward(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "forward result not found: "+id)
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleDeleteForward(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "forward result not found: "+id)
	}
	return writeJSON(c, http.StatusOK, DeleteResponse{ID: id, Object: "forward.deleted", Deleted: true})
}
