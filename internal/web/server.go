package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"imgtools/internal/config"
	"imgtools/internal/metadata"
	"imgtools/internal/resizer"
	"imgtools/internal/statistics"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	// Current run state
	operationMutex sync.RWMutex
	isRunning      bool
	currentStats   *statistics.Statistics
	lastError      string
	done           chan struct{}
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ResizeRequest starts a batch run. Empty fields keep the server configuration.
type ResizeRequest struct {
	SourcePath    string   `json:"source_path"`
	Recursive     bool     `json:"recursive"`
	Size          []string `json:"size,omitempty"`
	Filter        string   `json:"filter,omitempty"`
	ExtensionRule string   `json:"extension_rule,omitempty"`
	PreserveEXIF  *bool    `json:"preserve_exif,omitempty"`
}

type DirectoryInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins, the server binds locally
			},
		},
	}

	s.setupRoutes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/resize", s.handleResize).Methods("POST")
	api.HandleFunc("/directories", s.handleListDirectories).Methods("GET")
	api.HandleFunc("/statistics", s.handleGetStatistics).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Wait blocks until the current run, if any, has finished.
func (s *Server) Wait() {
	s.operationMutex.RLock()
	done := s.done
	s.operationMutex.RUnlock()

	if done != nil {
		<-done
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	stats := s.currentStats
	lastError := s.lastError
	s.operationMutex.RUnlock()

	var statsData interface{}
	if stats != nil {
		statsData = stats.Snapshot()
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    running,
			"last_error": lastError,
			"statistics": statsData,
		},
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.SourcePath == "" {
		s.writeError(w, "Source path is required", http.StatusBadRequest)
		return
	}

	cfg := s.runConfig(req)
	if err := cfg.Validate(); err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		s.writeError(w, "Operation already in progress", http.StatusConflict)
		return
	}
	stats := statistics.NewStatistics()
	done := make(chan struct{})
	s.isRunning = true
	s.currentStats = stats
	s.lastError = ""
	s.done = done
	s.operationMutex.Unlock()

	go s.runResizeAsync(cfg, stats, done)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Resize started",
	})
}

// runConfig copies the server configuration and applies the request overrides.
func (s *Server) runConfig(req ResizeRequest) *config.Config {
	cfg := *s.cfg
	cfg.SourcePath = req.SourcePath
	cfg.Recursive = req.Recursive
	cfg.Discovery.Extensions = append([]string(nil), s.cfg.Discovery.Extensions...)

	if len(req.Size) > 0 {
		cfg.Resize.Size = req.Size
	} else {
		cfg.Resize.Size = append([]string(nil), s.cfg.Resize.Size...)
	}
	if req.Filter != "" {
		cfg.Resize.Filter = req.Filter
	}
	if req.ExtensionRule != "" {
		cfg.Output.ExtensionRule = req.ExtensionRule
	}
	if req.PreserveEXIF != nil {
		cfg.Metadata.PreserveEXIF = *req.PreserveEXIF
	}
	return &cfg
}

func (s *Server) handleListDirectories(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	// prevent directory traversal
	if strings.Contains(path, "..") {
		s.writeError(w, "Invalid path", http.StatusBadRequest)
		return
	}
	path = filepath.Clean(path)

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read directory: %v", err), http.StatusInternalServerError)
		return
	}

	directories := make([]DirectoryInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		directories = append(directories, DirectoryInfo{
			Path:         filepath.Join(path, entry.Name()),
			Name:         entry.Name(),
			IsDirectory:  entry.IsDir(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    directories,
	})
}

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	stats := s.currentStats
	s.operationMutex.RUnlock()

	if stats == nil {
		s.writeJSON(w, APIResponse{Success: true})
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"summary":    stats.GetSummary(),
			"file_types": stats.GetFileTypeBreakdown(),
			"counters":   stats.Snapshot(),
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) runResizeAsync(cfg *config.Config, stats *statistics.Statistics, done chan struct{}) {
	defer close(done)

	var copier metadata.Copier
	if cfg.Metadata.PreserveEXIF {
		c, err := metadata.NewExifToolCopier(cfg.Metadata.Tags)
		if err != nil {
			s.log.Warnf("Metadata will not be preserved: %v", err)
		} else {
			copier = c
			defer c.Close()
		}
	}

	progress := func(n, total int, file string) {
		s.broadcastWSMessage("resize_progress", map[string]interface{}{
			"done":  n,
			"total": total,
			"file":  file,
		})
	}

	br, err := resizer.NewBatchResizerWithProgress(cfg, s.log, stats, copier, progress)
	if err == nil {
		s.broadcastWSMessage("resize_started", map[string]interface{}{
			"source_path": cfg.SourcePath,
			"recursive":   cfg.Recursive,
			"size":        br.Spec().String(),
		})
		_, err = br.Run()
	}

	s.operationMutex.Lock()
	s.isRunning = false
	if err != nil {
		s.lastError = err.Error()
	}
	s.operationMutex.Unlock()

	if err != nil {
		s.log.Errorf("Resize run failed: %v", err)
		s.broadcastWSMessage("resize_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.broadcastWSMessage("resize_completed", map[string]interface{}{
		"statistics": stats.Snapshot(),
		"output":     cfg.OutputDirectory(),
	})
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			go func(c *websocket.Conn) {
				s.wsMutex.Lock()
				delete(s.wsClients, c)
				s.wsMutex.Unlock()
				c.Close()
			}(conn)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
