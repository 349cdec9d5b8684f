package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/concierge-labs/concierge/pkg/agent"
	"github.com/concierge-labs/concierge/pkg/router"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

const maxUploadBytes = 32 << 20

// docKeywords marks questions that should go straight to the document
// pipeline instead of the keyword router.
func docKeywords(question string) bool {
	lower := strings.ToLower(question)
	return strings.Contains(lower, "pdf") || strings.Contains(lower, "document")
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "concierge is running"})
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChat(r)
	if err != nil {
		s.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeDetail(w, http.StatusBadRequest, "question is required")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = "default"
	}

	// Document questions bypass keyword routing entirely.
	if docKeywords(req.Question) {
		answer, err := s.pipeline.Answer(r.Context(), userID, req.Question)
		if err != nil {
			s.logger.Error("document answer failed", slog.String("error", err.Error()))
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, router.Envelope{
			Status:    agent.StatusSucceeded,
			Result:    answer,
			HandlerID: "documents",
			SessionID: uuid.NewString(),
		})
		return
	}

	env := s.router.Route(r.Context(), userID, req.Question)
	s.writeJSON(w, http.StatusOK, env)
}

func decodeChat(r *http.Request) (chatRequest, error) {
	var req chatRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("decode request body: %w", err)
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("parse form: %w", err)
	}
	req.UserID = r.FormValue("user_id")
	req.Question = r.FormValue("question")
	return req, nil
}

func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	userID, file, header, ok := s.acceptUpload(w, r, ".pdf")
	if !ok {
		return
	}
	defer file.Close()

	chunks, err := s.pipeline.Ingest(r.Context(), userID, header.Filename, file)
	if err != nil {
		s.logger.Error("pdf ingest failed",
			slog.String("file", header.Filename),
			slog.String("error", err.Error()))
		s.writeDetail(w, http.StatusInternalServerError, "failed to process PDF: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%s processed successfully", header.Filename),
		"chunks":  chunks,
	})
}

type voiceResponse struct {
	Summary   string `json:"summary"`
	AudioPath string `json:"audio_path,omitempty"`
}

// handleVoiceChat is a fixed sequential pipeline: transcribe, summarize,
// synthesize. The transcript never goes through the keyword router, so a
// stray routing keyword in spoken input cannot redirect the request.
func (s *Server) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	userID, file, header, ok := s.acceptUpload(w, r, "")
	if !ok {
		return
	}
	defer file.Close()

	name, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "failed to store audio: "+err.Error())
		return
	}

	transcript, err := s.registry.Invoke(r.Context(), "transcribe_audio", tooling.ToolRequest{
		UserID:    userID,
		Arguments: map[string]any{"input": name},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	summary, err := s.registry.Invoke(r.Context(), "summarize_text", tooling.ToolRequest{
		UserID:    userID,
		Arguments: map[string]any{"input": transcript.Content},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := voiceResponse{Summary: summary.Content}
	speech, err := s.registry.Invoke(r.Context(), "text_to_speech", tooling.ToolRequest{
		UserID:    userID,
		Arguments: map[string]any{"input": summary.Content},
	})
	if err != nil {
		// Spoken output is best effort; the summary text still stands.
		s.logger.Warn("speech synthesis failed", slog.String("error", err.Error()))
	} else {
		resp.AudioPath = speech.Content
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// stagedCSVName is the fixed name /upload_csv stages under; /query_csv
// reads it back when no file is named.
const stagedCSVName = "data.csv"

func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	_, file, _, ok := s.acceptUpload(w, r, ".csv")
	if !ok {
		return
	}
	defer file.Close()

	name := stagedCSVName
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "failed to store file: "+err.Error())
		return
	}
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "failed to store file: "+err.Error())
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "failed to store file: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message":  fmt.Sprintf("%s uploaded successfully", name),
		"filename": name,
	})
}

type queryCSVRequest struct {
	File     string `json:"file"`
	Question string `json:"question"`
}

func (s *Server) handleQueryCSV(w http.ResponseWriter, r *http.Request) {
	var req queryCSVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "decode request body: "+err.Error())
		return
	}
	if req.Question == "" {
		s.writeDetail(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.File == "" {
		req.File = stagedCSVName
	}
	resp, err := s.registry.Invoke(r.Context(), "analyze_csv", tooling.ToolRequest{
		Arguments: map[string]any{"input": req.File + tooling.DefaultSeparator + req.Question},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"answer": resp.Content})
}

type calendarEventRequest struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

func (s *Server) handleCreateCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req calendarEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "decode request body: "+err.Error())
		return
	}
	args := map[string]any{"summary": req.Title, "start": req.StartTime}
	if req.EndTime != "" {
		args["end"] = req.EndTime
	}
	if req.Description != "" {
		args["description"] = req.Description
	}
	resp, err := s.registry.Invoke(r.Context(), "create_event", tooling.ToolRequest{Arguments: args})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"event_link": resp.Metadata["link"],
		"result":     resp.Content,
	})
}

// acceptUpload parses a multipart upload and enforces the extension when
// one is required. On failure it writes the error response itself.
func (s *Server) acceptUpload(w http.ResponseWriter, r *http.Request, wantExt string) (string, multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "parse upload: "+err.Error())
		return "", nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeDetail(w, http.StatusBadRequest, "file field is required")
		return "", nil, nil, false
	}
	if wantExt != "" && !strings.EqualFold(filepath.Ext(header.Filename), wantExt) {
		file.Close()
		s.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("only %s files are accepted", wantExt))
		return "", nil, nil, false
	}
	userID := r.FormValue("user_id")
	if userID == "" {
		userID = "default"
	}
	return userID, file, header, true
}

// saveUpload stores an uploaded file under a fresh name and returns it.
func (s *Server) saveUpload(file multipart.File, original string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + filepath.Ext(original)
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return name, nil
}
