package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/ingestion"
)

const userKey = "docent.user"

type documentRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source"`
}

type ingestResponse struct {
	Namespace  core.Namespace `json:"namespace"`
	Source     string         `json:"source"`
	Chunks     int            `json:"chunks"`
	DocumentID string         `json:"document_id"`
	DurationMS int64          `json:"duration_ms"`
}

type summaryResponse struct {
	Source     string `json:"source"`
	Model      string `json:"model"`
	Summary    string `json:"summary"`
	Content    string `json:"content,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type sourceResponse struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Score  float32 `json:"score"`
	Text   string  `json:"text"`
}

type askResponse struct {
	Question   string           `json:"question"`
	Standalone string           `json:"standalone_question"`
	Answer     string           `json:"answer"`
	Sources    []sourceResponse `json:"sources"`
	DurationMS int64            `json:"duration_ms"`
}

type modelRequest struct {
	Model string `json:"model" binding:"required"`
}

type sessionResponse struct {
	User      int64          `json:"user"`
	State     string         `json:"state"`
	Namespace core.Namespace `json:"namespace,omitempty"`
	Model     string         `json:"model"`
	Turns     int            `json:"turns"`
}

type modelResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// userID parses the :user path parameter for the routes below it.
func (s *Server) userID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("user"), 10, 64)
		if err != nil || id < 0 {
			badRequest(c, "invalid user id")
			return
		}
		c.Set(userKey, id)
		c.Next()
	}
}

func (s *Server) session(c *gin.Context) sessionResponse {
	user := c.GetInt64(userKey)
	sess := s.assistant.Session(user)
	return sessionResponse{
		User:      user,
		State:     sess.State().String(),
		Namespace: sess.Namespace(),
		Model:     sess.Model(),
		Turns:     len(sess.History()),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModels(c *gin.Context) {
	models := make([]modelResponse, 0, len(ai.AvailableModels))
	for _, m := range ai.AvailableModels {
		models = append(models, modelResponse{ID: m.ID, Name: m.Name, Default: m.ID == ai.DefaultModel})
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (s *Server) handleNamespaces(c *gin.Context) {
	namespaces, err := s.assistant.Namespaces(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"namespaces": namespaces})
}

// readDocument reads a document from the uploaded "file" of a multipart
// request or from a JSON body, both capped at the upload limit. On failure
// it writes the response itself and reports false.
func (s *Server) readDocument(c *gin.Context) (text, source string, ok bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				tooLarge(c)
				return "", "", false
			}
			badRequest(c, "missing file")
			return "", "", false
		}
		f, err := header.Open()
		if err != nil {
			s.fail(c, err)
			return "", "", false
		}
		defer f.Close()

		doc, err := extract.Reader(c.Request.Context(), header.Filename, f)
		if err != nil {
			s.fail(c, err)
			return "", "", false
		}
		return doc.Text, doc.Source, true
	}

	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			tooLarge(c)
			return "", "", false
		}
		badRequest(c, "text is required")
		return "", "", false
	}
	return req.Text, req.Source, true
}

func (s *Server) handleIngest(c *gin.Context) {
	ctx := c.Request.Context()
	text, source, ok := s.readDocument(c)
	if !ok {
		return
	}

	result, err := s.assistant.IngestDocument(ctx, c.GetInt64(userKey), text, source)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ingestResponse{
		Namespace:  result.Namespace,
		Source:     result.Source,
		Chunks:     result.Chunks,
		DocumentID: fmt.Sprintf("%016x", uint64(result.DocumentId)),
		DurationMS: result.Duration.Milliseconds(),
	})
}

func (s *Server) handleSummarize(c *gin.Context) {
	text, source, ok := s.readDocument(c)
	if !ok {
		return
	}
	if source == "" {
		source = ingestion.DefaultSource
	}

	start := time.Now()
	user := c.GetInt64(userKey)
	summary, err := s.assistant.Summarize(c.Request.Context(), user, text)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := summaryResponse{
		Source:     source,
		Model:      s.assistant.Session(user).Model(),
		Summary:    summary,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if c.Query("content") == "true" {
		resp.Content = docent.Preview(text)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleClear(c *gin.Context) {
	if err := s.assistant.ClearDocuments(c.Request.Context(), c.GetInt64(userKey)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session(c))
}

func (s *Server) handleStartChat(c *gin.Context) {
	if err := s.assistant.StartChat(c.GetInt64(userKey)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session(c))
}

func (s *Server) handleEndChat(c *gin.Context) {
	s.assistant.EndChat(c.GetInt64(userKey))
	c.JSON(http.StatusOK, s.session(c))
}

func (s *Server) handleSelectModel(c *gin.Context) {
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Model) == "" {
		badRequest(c, "model is required")
		return
	}
	s.assistant.SelectModel(c.GetInt64(userKey), strings.TrimSpace(req.Model))
	c.JSON(http.StatusOK, s.session(c))
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "question is required")
		return
	}

	start := time.Now()
	turn, err := s.assistant.Ask(c.Request.Context(), c.GetInt64(userKey), req.Question)
	if err != nil {
		s.fail(c, err)
		return
	}

	sources := make([]sourceResponse, 0, len(turn.Chunks))
	for _, r := range turn.Chunks {
		sources = append(sources, sourceResponse{
			Source: r.Record.Source,
			Index:  r.Record.Index,
			Score:  r.Score,
			Text:   r.Record.Contents,
		})
	}
	c.JSON(http.StatusOK, askResponse{
		Question:   turn.Question,
		Standalone: turn.Standalone,
		Answer:     turn.Answer,
		Sources:    sources,
		DurationMS: time.Since(start).Milliseconds(),
	})
}
