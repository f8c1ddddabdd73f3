package server

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SecorD0/selenium/internal/script"
	"github.com/SecorD0/selenium/internal/utils"
)

// Request and response shapes for the command surface.

type newSessionRequest struct {
	PageHTML string `json:"html"`
}

type executeRequest struct {
	Script    string        `json:"script"`
	Args      []interface{} `json:"args"`
	TimeoutMS int           `json:"timeout_ms"`
}

type findElementRequest struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

type valueResponse struct {
	Value interface{} `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// wrapScriptBody turns a WebDriver script body into the anonymous-function
// source the engine executes: evaluating it yields the callable.
func wrapScriptBody(body string) string {
	return "(function() { return function(){" + body + "};})();"
}

// getElementTextScript extracts an element's visible text. The element
// arrives as the single positional argument.
const getElementTextScript = "(function() { return function(element){ return element.textContent; };})();"

func (s *Server) handleCreateSession(c *gin.Context) {
	var req newSessionRequest
	if !s.decode(c, &req) {
		return
	}

	if err := utils.ValidatePageHTML(req.PageHTML); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}

	session, err := s.sessions.Create(req.PageHTML)
	if err != nil {
		s.log.Warn("session creation failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.SessionsActive.Inc()
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.SessionsActive.Dec()
	c.Status(http.StatusNoContent)
}

// handleExecuteScript runs a script synchronously and renders its result
// back to JSON.
func (s *Server) handleExecuteScript(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req executeRequest
	if !s.decode(c, &req) {
		return
	}
	if !s.validateExecute(c, &req) {
		return
	}

	session.lock()
	defer session.unlock()

	invocation := script.New(session.Host(), wrapScriptBody(req.Script), len(req.Args))

	start := time.Now()
	status := invocation.AddArguments(session.Registry(), req.Args)
	if status == script.StatusSuccess {
		status = invocation.Execute()
	}
	s.metrics.RecordScript("sync", status.String(), time.Since(start))

	if status != script.StatusSuccess {
		s.renderStatus(c, invocation, status)
		return
	}

	value, status := invocation.ConvertResultToJSON(session.Registry())
	if status != script.StatusSuccess {
		s.renderStatus(c, invocation, status)
		return
	}
	s.renderValue(c, value)
}

// handleExecuteAsyncScript dispatches a script to a worker execution
// context and waits no longer than the requested timeout. A timeout is not
// an error: the script keeps running detached and the call reports success.
func (s *Server) handleExecuteAsyncScript(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req executeRequest
	if !s.decode(c, &req) {
		return
	}
	if !s.validateExecute(c, &req) {
		return
	}

	timeout := s.cfg.Engine.AsyncTimeout
	if req.TimeoutMS > 0 {
		timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}

	session.lock()
	defer session.unlock()

	invocation := script.New(session.Host(), wrapScriptBody(req.Script), len(req.Args))

	start := time.Now()
	status := invocation.AddArguments(session.Registry(), req.Args)
	if status == script.StatusSuccess {
		asyncCfg := script.AsyncConfig{
			BootstrapAttempts: s.cfg.Engine.BootstrapAttempts,
			BootstrapDelay:    s.cfg.Engine.BootstrapDelay,
			StartupTimeout:    s.cfg.Engine.WorkerStartupTimeout,
			PollInterval:      s.cfg.Engine.AsyncPollInterval,
		}
		s.metrics.AsyncInFlight.Inc()
		var worker *script.Worker
		worker, status = invocation.BeginAsyncExecutionWithConfig(asyncCfg)
		if status == script.StatusSuccess {
			status = worker.Await(timeout, asyncCfg.PollInterval)
		}
		s.metrics.AsyncInFlight.Dec()
		if worker != nil {
			// The engine handle moved into the worker context. The session
			// reclaims the runtime from it before the next command runs;
			// rebinding here would race a still-evaluating detached worker.
			session.trackAsyncWorker(worker)
		}
	}
	s.metrics.RecordScript("async", status.String(), time.Since(start))

	if status != script.StatusSuccess {
		s.renderStatus(c, invocation, status)
		return
	}
	// No result value crosses the worker boundary in this mode.
	s.renderValue(c, nil)
}

func (s *Server) handleFindElement(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req findElementRequest
	if !s.decode(c, &req) {
		return
	}
	if req.Using != "xpath" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unsupported location strategy: " + req.Using})
		return
	}

	session.lock()
	defer session.unlock()

	handle, err := session.Document().Find(req.Value)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	id := session.Registry().Register(handle)
	s.renderValue(c, map[string]interface{}{script.ElementReferenceKey: id})
}

// handleGetElementText executes the text-extraction script with the element
// reference as its single argument and returns the string rendering.
func (s *Server) handleGetElementText(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	session.lock()
	defer session.unlock()

	invocation := script.New(session.Host(), getElementTextScript, 1)
	reference := map[string]interface{}{script.ElementReferenceKey: c.Param("elementId")}

	start := time.Now()
	status := invocation.AddArguments(session.Registry(), []interface{}{reference})
	if status == script.StatusSuccess {
		status = invocation.Execute()
	}
	s.metrics.RecordScript("sync", status.String(), time.Since(start))

	if status != script.StatusSuccess {
		s.renderStatus(c, invocation, status)
		return
	}

	text, ok := invocation.ConvertResultToString()
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "element text is not renderable as a string"})
		return
	}
	s.renderValue(c, text)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// session resolves the :id route parameter, replying 404 on miss.
func (s *Server) session(c *gin.Context) (*Session, bool) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return nil, false
	}
	return session, true
}

// validateExecute enforces script and argument limits before any engine
// work starts. Replies 413 on violation.
func (s *Server) validateExecute(c *gin.Context, req *executeRequest) bool {
	if err := utils.ValidateScriptSource(req.Script); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return false
	}
	if err := utils.ValidateArgumentDepth(req.Args, utils.MaxArgumentDepth); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// decode reads the request body through sonic. Replies 400 on bad JSON.
func (s *Server) decode(c *gin.Context, into interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := s.payloadLimit.ValidateSize(body); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return false
	}
	if err := sonic.Unmarshal(body, into); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}

// renderValue writes a success envelope through sonic.
func (s *Server) renderValue(c *gin.Context, value interface{}) {
	payload, err := sonic.Marshal(valueResponse{Value: value})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// renderStatus maps an engine status to the HTTP boundary. This is the only
// place engine status codes become HTTP statuses.
func (s *Server) renderStatus(c *gin.Context, invocation *script.Script, status script.Status) {
	message := status.String()
	if status == script.StatusScriptError {
		if desc, ok := invocation.ConvertResultToString(); ok && desc != "" {
			message = message + ": " + desc
		}
	}

	httpStatus := http.StatusInternalServerError
	switch status {
	case script.StatusObsoleteElement:
		// Stale element references surface as 404 at the API boundary.
		httpStatus = http.StatusNotFound
	case script.StatusConcurrentAsync:
		httpStatus = http.StatusConflict
	}
	c.JSON(httpStatus, errorResponse{Error: message})
}
